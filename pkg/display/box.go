package display

// box.go draws bordered boxes with ANSI-aware width handling.

import "strings"

// Box drawing characters. Rounded corners.
const (
	BoxTopLeft     = "╭"
	BoxTopRight    = "╮"
	BoxBottomLeft  = "╰"
	BoxBottomRight = "╯"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
)

// ANSI codes for styled output.
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorRed   = "\033[31m"
	ColorGreen = "\033[32m"
	ColorGray  = "\033[90m"
	ColorWhite = "\033[97m"
)

// Box renders box rows with a fixed inner width.
type Box struct {
	Width int
}

// NewBox creates a Box with the given inner content width.
func NewBox(width int) *Box {
	return &Box{Width: width}
}

// Top returns the top border: ╭──────╮
func (b *Box) Top() string {
	return BoxTopLeft + strings.Repeat(BoxHorizontal, b.Width) + BoxTopRight
}

// Bottom returns the bottom border: ╰──────╯
func (b *Box) Bottom() string {
	return BoxBottomLeft + strings.Repeat(BoxHorizontal, b.Width) + BoxBottomRight
}

// RowCenter returns a bordered row with content centered. Content wider
// than the box is truncated.
func (b *Box) RowCenter(content string) string {
	visibleLen := visibleLength(content)
	if visibleLen >= b.Width {
		return BoxVertical + truncateVisible(content, b.Width) + BoxVertical
	}
	totalPadding := b.Width - visibleLen
	leftPad := totalPadding / 2
	return BoxVertical + strings.Repeat(" ", leftPad) + content + strings.Repeat(" ", totalPadding-leftPad) + BoxVertical
}

// EmptyRow returns an empty bordered row.
func (b *Box) EmptyRow() string {
	return BoxVertical + strings.Repeat(" ", b.Width) + BoxVertical
}

// Center pads content on the left so it sits in the middle of width.
func Center(content string, width int) string {
	n := visibleLength(content)
	if n >= width {
		return content
	}
	return strings.Repeat(" ", (width-n)/2) + content
}

// visibleLength returns the rune count of s, excluding ANSI escape codes.
func visibleLength(s string) int {
	length := 0
	inEscape := false
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		length++
	}
	return length
}

// truncateVisible cuts s to width visible runes, keeping escape codes and
// closing any open style.
func truncateVisible(s string, width int) string {
	var result strings.Builder
	visible := 0
	inEscape := false
	hasOpenEscape := false

	for _, r := range s {
		if r == '\033' {
			inEscape = true
			hasOpenEscape = true
			result.WriteRune(r)
			continue
		}
		if inEscape {
			result.WriteRune(r)
			if r == 'm' {
				inEscape = false
				if strings.HasSuffix(result.String(), ColorReset) {
					hasOpenEscape = false
				}
			}
			continue
		}
		if visible >= width {
			break
		}
		result.WriteRune(r)
		visible++
	}
	if hasOpenEscape {
		result.WriteString(ColorReset)
	}
	return result.String()
}

// wrap breaks text into lines of at most width runes at spaces. Existing
// newlines are kept.
func wrap(text string, width int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if visibleLength(line)+1+visibleLength(w) > width {
				out = append(out, line)
				line = w
				continue
			}
			line += " " + w
		}
		out = append(out, line)
	}
	return out
}
