// Package errors tests for structured error types.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// ExperimentError Construction Tests
// -----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	ee := New("TEST_ERROR", CategoryConfig, "test message")

	if ee.Code != "TEST_ERROR" {
		t.Errorf("expected Code 'TEST_ERROR', got %q", ee.Code)
	}
	if ee.Category != CategoryConfig {
		t.Errorf("expected Category CategoryConfig, got %v", ee.Category)
	}
	if ee.Context == nil {
		t.Error("expected Context map to be initialized, got nil")
	}
	if ee.Cause != nil || ee.Suggestions != nil {
		t.Error("expected no cause and no suggestions")
	}
}

func TestExperimentError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ExperimentError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrConfigNotFound, CategoryConfig, "settings file not found"),
			expected: "CONFIG_NOT_FOUND: settings file not found",
		},
		{
			name:     "with cause",
			err:      Wrap(fmt.Errorf("permission denied"), ErrIOWriteFailed, CategoryIO, "failed to write data"),
			expected: "IO_WRITE_FAILED: failed to write data: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Builder Pattern Tests
// -----------------------------------------------------------------------------

func TestBuilders(t *testing.T) {
	ee := New("TEST", CategoryDesign, "test").
		WithContext("block", "3").
		WithContextMap(map[string]string{"requested": "5", "available": "2"}).
		WithSuggestion("one").
		WithSuggestions("two", "three")

	if ee.Context["block"] != "3" || ee.Context["available"] != "2" {
		t.Errorf("unexpected context %v", ee.Context)
	}
	if len(ee.Suggestions) != 3 {
		t.Errorf("expected 3 suggestions, got %d", len(ee.Suggestions))
	}
	if got := ee.ContextString(); got != `available="2", block="3", requested="5"` {
		t.Errorf("ContextString() = %s", got)
	}
}

// -----------------------------------------------------------------------------
// Matching Tests
// -----------------------------------------------------------------------------

func TestIs_MatchesByCode(t *testing.T) {
	sentinel := New(ErrNoGoNoValidDistribution, CategoryDesign, "sentinel")
	actual := New(ErrNoGoNoValidDistribution, CategoryDesign, "different message").
		WithContext("block", "4")

	if !errors.Is(actual, sentinel) {
		t.Error("errors.Is should match on code")
	}
	wrapped := fmt.Errorf("block setup: %w", actual)
	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is should see through fmt wrapping")
	}
	if errors.Is(actual, New(ErrNoGoInsufficientEligible, CategoryDesign, "other")) {
		t.Error("different codes must not match")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	ee := Wrap(cause, ErrIOWriteFailed, CategoryIO, "write")
	if !errors.Is(ee, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}

func TestAsExperimentError(t *testing.T) {
	if _, ok := AsExperimentError(nil); ok {
		t.Error("nil should not convert")
	}
	if _, ok := AsExperimentError(fmt.Errorf("plain")); ok {
		t.Error("plain error should not convert")
	}
	inner := New(ErrStoreFailed, CategoryIO, "store")
	got, ok := AsExperimentError(fmt.Errorf("outer: %w", inner))
	if !ok || got != inner {
		t.Error("expected to find wrapped ExperimentError")
	}
	if !IsCode(fmt.Errorf("x: %w", inner), ErrStoreFailed) {
		t.Error("IsCode should follow the chain")
	}
	if !IsCategory(inner, CategoryIO) || IsCategory(inner, CategoryConfig) {
		t.Error("IsCategory mismatch")
	}
}

func TestCategoryFor(t *testing.T) {
	if CategoryFor(ErrNoGoInsufficientEligible) != CategoryDesign {
		t.Error("no-go codes belong to the design category")
	}
	if CategoryFor("UNKNOWN") != CategoryInternal {
		t.Error("unknown codes default to internal")
	}
}

// -----------------------------------------------------------------------------
// Suggestion Tests
// -----------------------------------------------------------------------------

func TestRegistry_ConditionalSuggestions(t *testing.T) {
	r := NewRegistry().
		Register("X", "general").
		RegisterWithCondition("X", "linux only", map[string]string{ContextOS: OSLinux})

	linux := r.Get("X", map[string]string{ContextOS: OSLinux})
	if len(linux) != 2 || linux[0] != "linux only" {
		t.Errorf("linux suggestions = %v", linux)
	}
	windows := r.Get("X", map[string]string{ContextOS: OSWindows})
	if len(windows) != 1 || windows[0] != "general" {
		t.Errorf("windows suggestions = %v", windows)
	}
	if r.HasSuggestions("Y") {
		t.Error("unexpected suggestions for Y")
	}
}

func TestConstructors_AttachSuggestions(t *testing.T) {
	ee := Config(ErrConfigNotFound, "missing")
	if !ee.HasSuggestions() {
		t.Fatal("expected suggestions")
	}
	found := false
	for _, s := range ee.Suggestions {
		if strings.Contains(s, "--init") {
			found = true
		}
	}
	if !found {
		t.Error("expected a suggestion mentioning --init")
	}

	dev := DeviceWrap(fmt.Errorf("no such file"), ErrDeviceOpenFailed, "COM3", "open trigger port")
	if dev.Context[ContextPort] != "COM3" {
		t.Errorf("port context = %q", dev.Context[ContextPort])
	}
	if dev.Category != CategoryDevice {
		t.Errorf("category = %s", dev.Category)
	}
	if runtime.GOOS == OSLinux && !strings.Contains(strings.Join(dev.Suggestions, "|"), "dialout") {
		t.Error("expected dialout suggestion on linux")
	}
}

func TestAborted(t *testing.T) {
	err := Aborted("trial")
	if !IsCode(err, ErrSessionAborted) {
		t.Errorf("code = %s", err.Code)
	}
	if err.Context["during"] != "trial" {
		t.Errorf("during = %q", err.Context["during"])
	}
}
