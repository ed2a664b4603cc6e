package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/r3d91ll/asrt/pkg/sequence"
)

// ANSI screen control.
const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Slot glyphs.
const (
	DefaultTargetGlyph = "●"
	DefaultNoGoGlyph   = "✖"
	emptyGlyph         = "○"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	slotGap       = 7
)

// TerminalConfig holds terminal display options.
type TerminalConfig struct {
	Writer      io.Writer
	TargetGlyph string
	NoGoGlyph   string
	// Color enables ANSI colors. Auto-detected from Writer when nil.
	Color *bool
}

// Terminal draws on an ANSI terminal. Output is written in one call per
// frame so a screen never appears half drawn.
type Terminal struct {
	w      io.Writer
	target string
	nogo   string
	color  bool
	width  int
	height int
}

// Ensure Terminal implements Display at compile time.
var _ Display = (*Terminal)(nil)

// NewTerminal creates a terminal display and hides the cursor.
func NewTerminal(cfg TerminalConfig) *Terminal {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	t := &Terminal{
		w:      cfg.Writer,
		target: cfg.TargetGlyph,
		nogo:   cfg.NoGoGlyph,
		width:  defaultWidth,
		height: defaultHeight,
	}
	if t.target == "" {
		t.target = DefaultTargetGlyph
	}
	if t.nogo == "" {
		t.nogo = DefaultNoGoGlyph
	}

	isTTY := false
	if f, ok := cfg.Writer.(*os.File); ok {
		fd := int(f.Fd())
		isTTY = term.IsTerminal(fd)
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			t.width, t.height = w, h
		}
	}
	t.color = isTTY
	if cfg.Color != nil {
		t.color = *cfg.Color
	}
	if t.color {
		fmt.Fprint(t.w, hideCursor)
	}
	return t
}

// Stimulus implements Display.
func (t *Terminal) Stimulus(target sequence.Position, nogo bool) error {
	slots := make([]string, 4)
	for i := range slots {
		switch {
		case sequence.Position(i+1) != target:
			slots[i] = t.style(ColorGray, emptyGlyph)
		case nogo:
			slots[i] = t.style(ColorBold+ColorRed, t.nogo)
		default:
			slots[i] = t.style(ColorBold+ColorWhite, t.target)
		}
	}
	row := strings.Join(slots, strings.Repeat(" ", slotGap))
	return t.frame([]string{Center(row, t.width)})
}

// Text implements Display.
func (t *Terminal) Text(body string, tone Tone) error {
	lines := wrap(body, t.textWidth())
	for i, l := range lines {
		lines[i] = Center(t.toned(l, tone), t.width)
	}
	return t.frame(lines)
}

// Feedback implements Display.
func (t *Terminal) Feedback(header, stats, message string, tone Tone) error {
	box := NewBox(t.textWidth())
	lines := []string{box.Top(), box.RowCenter(t.style(ColorBold, header)), box.EmptyRow()}
	for _, l := range strings.Split(stats, "\n") {
		lines = append(lines, box.RowCenter(l))
	}
	lines = append(lines, box.EmptyRow(), box.RowCenter(t.toned(message, tone)), box.Bottom())
	for i, l := range lines {
		lines[i] = Center(l, t.width)
	}
	return t.frame(lines)
}

// Rating implements Display.
func (t *Terminal) Rating(r Rating) error {
	var lines []string
	for _, l := range wrap(r.Question, t.textWidth()) {
		lines = append(lines, Center(l, t.width))
	}
	lines = append(lines, "")

	cell := t.textWidth() / 4
	if cell < 8 {
		cell = 8
	}
	var keys, labels strings.Builder
	for i := 0; i < 4; i++ {
		key := fmt.Sprintf("[ %d ]", i+1)
		if r.Selected == i+1 {
			key = t.style(ColorBold+ColorGreen, key)
		}
		keys.WriteString(padCell(key, cell))
		labels.WriteString(padCell(truncateVisible(r.Labels[i], cell-1), cell))
	}
	lines = append(lines, Center(keys.String(), t.width), Center(t.style(ColorGray, labels.String()), t.width))
	return t.frame(lines)
}

// Close restores the cursor and clears the screen.
func (t *Terminal) Close() error {
	if t.color {
		_, err := fmt.Fprint(t.w, clearScreen+showCursor)
		return err
	}
	return nil
}

// frame clears the screen and prints lines vertically centered.
func (t *Terminal) frame(lines []string) error {
	var b strings.Builder
	if t.color {
		b.WriteString(clearScreen)
		top := (t.height - len(lines)) / 2
		if top > 0 {
			b.WriteString(strings.Repeat("\r\n", top))
		}
	} else {
		b.WriteString("\n")
	}
	// raw mode needs explicit carriage returns
	b.WriteString(strings.Join(lines, "\r\n"))
	b.WriteString("\r\n")
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Terminal) textWidth() int {
	w := t.width - 8
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (t *Terminal) style(code, s string) string {
	if !t.color {
		return s
	}
	return code + s + ColorReset
}

func (t *Terminal) toned(s string, tone Tone) string {
	switch tone {
	case Positive:
		return t.style(ColorGreen, s)
	case Negative:
		return t.style(ColorRed, s)
	default:
		return s
	}
}

func padCell(s string, width int) string {
	n := visibleLength(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}
