// Package errors tests for error formatting and display.
package errors

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestFormatter_Format_NilError(t *testing.T) {
	f := &Formatter{Indent: "  "}
	if got := f.Format(nil); got != "" {
		t.Errorf("expected empty string for nil error, got %q", got)
	}
}

func TestFormatter_Format_StandardError(t *testing.T) {
	plain := (&Formatter{Indent: "  "}).Format(fmt.Errorf("something went wrong"))
	if plain != "Error: something went wrong" {
		t.Errorf("plain = %q", plain)
	}

	colored := (&Formatter{UseColor: true, Indent: "  "}).Format(fmt.Errorf("boom"))
	if !strings.Contains(colored, colorRed) || !strings.Contains(colored, colorReset) {
		t.Errorf("expected ANSI codes in %q", colored)
	}
}

func TestFormatter_Format_ExperimentError(t *testing.T) {
	err := New(ErrNoGoInsufficientEligible, CategoryDesign, "not enough pattern trials").
		WithContext("requested", "12").
		WithContext("available", "9").
		WithCause(fmt.Errorf("quota")).
		WithSuggestion("lower the quota")

	got := Sprint(err)

	want := []string{
		"ERROR [NOGO_INSUFFICIENT_ELIGIBLE]: not enough pattern trials",
		"  available: 9\n  requested: 12",
		"  cause: quota",
		"  → lower the quota",
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("expected %q in:\n%s", w, got)
		}
	}
	if strings.Contains(got, "\033[") {
		t.Error("Sprint must not emit color codes")
	}
}

func TestFormatter_Display(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf, Indent: "  "}

	f.Display(nil)
	if buf.Len() != 0 {
		t.Error("nil error should print nothing")
	}

	f.Display(New(ErrSessionAborted, CategorySession, "aborted"))
	if !strings.HasSuffix(buf.String(), "\n") || !strings.Contains(buf.String(), "SESSION_ABORTED") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := map[Category]string{
		CategoryConfig: "Configuration Error",
		CategoryDesign: "Block Design Error",
		CategoryDevice: "Device Error",
		Category("?"):  "Error",
	}
	for cat, want := range tests {
		if got := CategoryLabel(cat); got != want {
			t.Errorf("CategoryLabel(%q) = %q, want %q", cat, got, want)
		}
	}
}
