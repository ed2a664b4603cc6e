package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/trial"
)

// SVG constants for plot generation.
const (
	SVGVersion   = "1.1"
	SVGNamespace = "http://www.w3.org/2000/svg"
)

// Series colors of the learning plot.
const (
	ColorHigh = "#2563eb" // Blue
	ColorLow  = "#dc2626" // Red
)

// DataPoint is one block's value.
type DataPoint struct {
	Block int
	Value float64
}

// DataSeries is one line of a plot.
type DataSeries struct {
	Label  string
	Color  string
	Points []DataPoint
}

// LearningCurve returns, per main block, the mean cumulative RT of correct
// go responses on high- and low-probability trials. Blocks without such a
// response are left out of that series.
func LearningCurve(records []trial.Record) []DataSeries {
	type acc struct {
		sum float64
		n   int
	}
	sums := map[trial.ProbabilityClass]map[int]*acc{
		trial.High: {},
		trial.Low:  {},
	}
	maxBlock := 0
	for i := range records {
		r := &records[i]
		if r.Practice || r.NoGo || !r.Correct || r.RTCumulative == nil {
			continue
		}
		byBlock, ok := sums[r.Class]
		if !ok {
			continue
		}
		a := byBlock[r.Block]
		if a == nil {
			a = &acc{}
			byBlock[r.Block] = a
		}
		a.sum += *r.RTCumulative
		a.n++
		if r.Block > maxBlock {
			maxBlock = r.Block
		}
	}

	series := []DataSeries{
		{Label: "High probability", Color: ColorHigh},
		{Label: "Low probability", Color: ColorLow},
	}
	for i, class := range []trial.ProbabilityClass{trial.High, trial.Low} {
		for block := 1; block <= maxBlock; block++ {
			if a := sums[class][block]; a != nil {
				series[i].Points = append(series[i].Points, DataPoint{Block: block, Value: a.sum / float64(a.n)})
			}
		}
	}
	return series
}

// SVGConfig specifies options for SVG plot generation.
type SVGConfig struct {
	Width  int
	Height int

	Title      string
	XAxisLabel string
	YAxisLabel string

	// Padding is the margin around the plot area.
	Padding int

	FontFamily      string
	GridColor       string
	AxisColor       string
	BackgroundColor string

	// ToolVersion is embedded in a comment when set.
	ToolVersion string
}

// DefaultSVGConfig returns the learning plot defaults.
func DefaultSVGConfig() *SVGConfig {
	return &SVGConfig{
		Width:           800,
		Height:          400,
		Title:           "Mean RT by block",
		XAxisLabel:      "Block",
		YAxisLabel:      "RT (s)",
		Padding:         60,
		FontFamily:      "Arial, sans-serif",
		GridColor:       "#e5e7eb",
		AxisColor:       "#374151",
		BackgroundColor: "#ffffff",
	}
}

// SVGPlotBuilder draws line plots of block series.
type SVGPlotBuilder struct {
	config *SVGConfig
	series []DataSeries
}

// NewSVGPlotBuilder creates a builder. A nil config uses the defaults.
func NewSVGPlotBuilder(config *SVGConfig) *SVGPlotBuilder {
	if config == nil {
		config = DefaultSVGConfig()
	}
	return &SVGPlotBuilder{config: config}
}

// AddSeries adds a series. Empty series are kept in the legend only.
func (spb *SVGPlotBuilder) AddSeries(series ...DataSeries) *SVGPlotBuilder {
	spb.series = append(spb.series, series...)
	return spb
}

// Build returns the SVG document, or "" when no series has a point.
func (spb *SVGPlotBuilder) Build() string {
	minX, maxX, minY, maxY, ok := spb.bounds()
	if !ok {
		return ""
	}
	c := spb.config
	plotWidth := c.Width - 2*c.Padding
	plotHeight := c.Height - 2*c.Padding

	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&sb, "<svg version=\"%s\" xmlns=\"%s\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n",
		SVGVersion, SVGNamespace, c.Width, c.Height, c.Width, c.Height)
	fmt.Fprintf(&sb, "  <style>text { font-family: %s; fill: %s; }</style>\n", c.FontFamily, c.AxisColor)
	fmt.Fprintf(&sb, "  <rect width=\"%d\" height=\"%d\" fill=\"%s\"/>\n", c.Width, c.Height, c.BackgroundColor)
	fmt.Fprintf(&sb, "  <!-- Generated at: %s -->\n", time.Now().UTC().Format(time.RFC3339))
	if c.ToolVersion != "" {
		fmt.Fprintf(&sb, "  <!-- Tool version: %s -->\n", escapeXML(c.ToolVersion))
	}

	fmt.Fprintf(&sb, "  <g transform=\"translate(%d,%d)\">\n", c.Padding, c.Padding)
	x := func(block int) float64 {
		return scaleValue(float64(block), float64(minX), float64(maxX), 0, float64(plotWidth))
	}
	y := func(v float64) float64 {
		return scaleValue(v, minY, maxY, float64(plotHeight), 0)
	}

	// Grid and axes
	for block := minX; block <= maxX; block++ {
		fmt.Fprintf(&sb, "    <line x1=\"%.1f\" y1=\"0\" x2=\"%.1f\" y2=\"%d\" stroke=\"%s\" stroke-dasharray=\"3,3\"/>\n",
			x(block), x(block), plotHeight, c.GridColor)
		fmt.Fprintf(&sb, "    <text x=\"%.1f\" y=\"%d\" font-size=\"10\" text-anchor=\"middle\">%d</text>\n",
			x(block), plotHeight+18, block)
	}
	for _, tick := range floatTicks(minY, maxY, 6) {
		fmt.Fprintf(&sb, "    <line x1=\"0\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\" stroke=\"%s\" stroke-dasharray=\"3,3\"/>\n",
			y(tick), plotWidth, y(tick), c.GridColor)
		fmt.Fprintf(&sb, "    <text x=\"-8\" y=\"%.1f\" font-size=\"10\" text-anchor=\"end\" dominant-baseline=\"middle\">%.3f</text>\n",
			y(tick), tick)
	}
	fmt.Fprintf(&sb, "    <line x1=\"0\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"%s\"/>\n",
		plotHeight, plotWidth, plotHeight, c.AxisColor)
	fmt.Fprintf(&sb, "    <line x1=\"0\" y1=\"0\" x2=\"0\" y2=\"%d\" stroke=\"%s\"/>\n", plotHeight, c.AxisColor)

	for _, s := range spb.series {
		if len(s.Points) == 0 {
			continue
		}
		var path strings.Builder
		for i, p := range s.Points {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s %.1f %.1f ", cmd, x(p.Block), y(p.Value))
		}
		fmt.Fprintf(&sb, "    <path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\"/>\n",
			strings.TrimSpace(path.String()), s.Color)
		for _, p := range s.Points {
			fmt.Fprintf(&sb, "    <circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"%s\" stroke=\"%s\"/>\n",
				x(p.Block), y(p.Value), c.BackgroundColor, s.Color)
		}
	}
	sb.WriteString("  </g>\n")

	// Title, legend and axis labels
	if c.Title != "" {
		fmt.Fprintf(&sb, "  <text x=\"%d\" y=\"24\" font-size=\"16\" font-weight=\"bold\" text-anchor=\"middle\">%s</text>\n",
			c.Width/2, escapeXML(c.Title))
	}
	for i, s := range spb.series {
		ly := c.Padding + 10 + i*18
		lx := c.Width - c.Padding - 20
		fmt.Fprintf(&sb, "  <line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"%s\" stroke-width=\"2\"/>\n",
			lx-40, ly, lx-10, ly, s.Color)
		fmt.Fprintf(&sb, "  <text x=\"%d\" y=\"%d\" font-size=\"11\" text-anchor=\"end\" dominant-baseline=\"middle\">%s</text>\n",
			lx-45, ly, escapeXML(s.Label))
	}
	fmt.Fprintf(&sb, "  <text x=\"%d\" y=\"%d\" font-size=\"12\" text-anchor=\"middle\">%s</text>\n",
		c.Padding+plotWidth/2, c.Height-15, escapeXML(c.XAxisLabel))
	fmt.Fprintf(&sb, "  <text x=\"15\" y=\"%d\" font-size=\"12\" text-anchor=\"middle\" transform=\"rotate(-90, 15, %d)\">%s</text>\n",
		c.Padding+plotHeight/2, c.Padding+plotHeight/2, escapeXML(c.YAxisLabel))

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteTo writes the SVG to w.
func (spb *SVGPlotBuilder) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, spb.Build())
	return int64(n), err
}

func (spb *SVGPlotBuilder) bounds() (minX, maxX int, minY, maxY float64, ok bool) {
	for _, s := range spb.series {
		for _, p := range s.Points {
			if !ok {
				minX, maxX, minY, maxY, ok = p.Block, p.Block, p.Value, p.Value, true
				continue
			}
			minX, maxX = min(minX, p.Block), max(maxX, p.Block)
			minY, maxY = math.Min(minY, p.Value), math.Max(maxY, p.Value)
		}
	}
	if !ok {
		return
	}
	if minX == maxX {
		minX--
		maxX++
	}
	if pad := (maxY - minY) * 0.1; pad > 0 {
		minY -= pad
		maxY += pad
	} else {
		minY -= 0.05
		maxY += 0.05
	}
	return
}

// scaleValue maps a value from one range to another.
func scaleValue(value, srcMin, srcMax, dstMin, dstMax float64) float64 {
	if srcMax == srcMin {
		return (dstMin + dstMax) / 2
	}
	return dstMin + (value-srcMin)*(dstMax-dstMin)/(srcMax-srcMin)
}

// floatTicks returns round tick values covering [lo, hi].
func floatTicks(lo, hi float64, maxTicks int) []float64 {
	if hi <= lo {
		return []float64{lo}
	}
	rough := (hi - lo) / float64(maxTicks)
	magnitude := math.Pow(10, math.Floor(math.Log10(rough)))
	var step float64
	switch residual := rough / magnitude; {
	case residual <= 1.5:
		step = magnitude
	case residual <= 3:
		step = 2 * magnitude
	case residual <= 7:
		step = 5 * magnitude
	default:
		step = 10 * magnitude
	}
	var ticks []float64
	for tick := math.Ceil(lo/step) * step; tick <= hi; tick += step {
		ticks = append(ticks, math.Round(tick/step)*step)
	}
	return ticks
}

func escapeXML(s string) string {
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	).Replace(s)
}

// PlotPath returns the learning plot file next to the data file.
func PlotPath(dir, base string) string {
	return filepath.Join(dir, base+"_learning.svg")
}

// WriteLearningPlot writes the learning curve of records to path. Nothing
// is written when no main block has a correct high or low response.
func WriteLearningPlot(path string, records []trial.Record, version string) (bool, error) {
	cfg := DefaultSVGConfig()
	cfg.ToolVersion = version
	svg := NewSVGPlotBuilder(cfg).AddSeries(LearningCurve(records)...).Build()
	if svg == "" {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return false, werrors.IOWrap(err, werrors.ErrIOWriteFailed, path, "failed to write learning plot")
	}
	return true, nil
}
