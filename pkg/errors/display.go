// Package errors provides error formatting and display functions.
// Renders ExperimentErrors with color coding for TTY output.
package errors

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m" // Error code
	colorYellow = "\033[33m" // Context information
	colorCyan   = "\033[36m" // Suggestions
	colorDim    = "\033[90m" // Cause
	colorBold   = "\033[1m"
)

// Formatter handles error display with optional color support.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool

	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer

	// Indent is the prefix for context and suggestion lines.
	Indent string
}

// DefaultFormatter returns a Formatter for standard error output.
// Color is enabled if stderr is a terminal.
func DefaultFormatter() *Formatter {
	return &Formatter{
		UseColor: IsTTY(os.Stderr),
		Writer:   os.Stderr,
		Indent:   "  ",
	}
}

// IsTTY returns true if the given file is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Format renders an error with the default formatter.
func Format(err error) string {
	return DefaultFormatter().Format(err)
}

// Format renders an error. ExperimentErrors show code, message, context,
// cause and suggestions; other errors a single line.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	ee, ok := AsExperimentError(err)
	if !ok {
		return f.paint(colorRed, "Error: ") + err.Error()
	}

	var sb strings.Builder

	sb.WriteString(f.paint(colorRed+colorBold, "ERROR"))
	sb.WriteString(f.paint(colorRed, " ["+ee.Code+"]: "))
	sb.WriteString(ee.Message)
	sb.WriteString("\n")

	keys := make([]string, 0, len(ee.Context))
	for k := range ee.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(f.Indent)
		sb.WriteString(f.paint(colorYellow, k+": "))
		sb.WriteString(ee.Context[k])
		sb.WriteString("\n")
	}

	if ee.Cause != nil {
		sb.WriteString(f.Indent)
		sb.WriteString(f.paint(colorDim, "cause: "+ee.Cause.Error()))
		sb.WriteString("\n")
	}

	if ee.HasSuggestions() {
		if ee.HasContext() || ee.Cause != nil {
			sb.WriteString("\n")
		}
		for i, s := range ee.Suggestions {
			sb.WriteString(f.Indent)
			sb.WriteString(f.paint(colorCyan, "→ "+s))
			if i < len(ee.Suggestions)-1 {
				sb.WriteString("\n")
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) paint(color, s string) string {
	if !f.UseColor {
		return s
	}
	return color + s + colorReset
}

// Display writes a formatted error to the formatter's writer.
func (f *Formatter) Display(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(f.Writer, f.Format(err))
}

// Display writes a formatted error to stderr with default settings.
func Display(err error) {
	DefaultFormatter().Display(err)
}

// Sprint returns a formatted error string without colors.
func Sprint(err error) string {
	f := &Formatter{Writer: io.Discard, Indent: "  "}
	return f.Format(err)
}

// CategoryLabel returns a human-readable label for an error category.
func CategoryLabel(cat Category) string {
	switch cat {
	case CategoryConfig:
		return "Configuration Error"
	case CategoryDesign:
		return "Block Design Error"
	case CategoryDevice:
		return "Device Error"
	case CategoryIO:
		return "I/O Error"
	case CategorySession:
		return "Session Error"
	case CategoryInternal:
		return "Internal Error"
	default:
		return "Error"
	}
}
