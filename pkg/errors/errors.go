// Package errors provides structured error types for ASRT sessions.
// Errors include context, causes, and actionable suggestions.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig   Category = "config"   // Settings and text catalog errors
	CategoryDesign   Category = "design"   // Block designs that cannot be realized
	CategoryDevice   Category = "device"   // Serial trigger port / response box errors
	CategoryIO       Category = "io"       // Data file and store errors
	CategorySession  Category = "session"  // Participant info and session lifecycle
	CategoryInternal Category = "internal" // Internal/unexpected errors
)

// ExperimentError is a structured error with context and suggestions.
// It implements the error interface and supports error wrapping.
type ExperimentError struct {
	// Code is a unique identifier for this error type (e.g., "CONFIG_NOT_FOUND")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error
	Cause error

	// Suggestions are actionable remediation steps for the experimenter
	Suggestions []string
}

// Error implements the error interface.
func (e *ExperimentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *ExperimentError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two ExperimentErrors match if they have the same Code.
func (e *ExperimentError) Is(target error) bool {
	if t, ok := target.(*ExperimentError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new ExperimentError with the given code, category, and message.
func New(code string, category Category, message string) *ExperimentError {
	return &ExperimentError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// Newf creates a new ExperimentError with a formatted message.
func Newf(code string, category Category, format string, args ...interface{}) *ExperimentError {
	return New(code, category, fmt.Sprintf(format, args...))
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *ExperimentError) WithContext(key, value string) *ExperimentError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithContextMap adds multiple context key-value pairs.
func (e *ExperimentError) WithContextMap(ctx map[string]string) *ExperimentError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	for k, v := range ctx {
		e.Context[k] = v
	}
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *ExperimentError) WithCause(cause error) *ExperimentError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *ExperimentError) WithSuggestion(suggestion string) *ExperimentError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple remediation suggestions.
func (e *ExperimentError) WithSuggestions(suggestions ...string) *ExperimentError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// HasContext returns true if the error has context information.
func (e *ExperimentError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *ExperimentError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as sorted key="value" pairs.
func (e *ExperimentError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps an existing error with an ExperimentError.
func Wrap(err error, code string, category Category, message string) *ExperimentError {
	return New(code, category, message).WithCause(err)
}

// AsExperimentError finds the first ExperimentError in err's chain.
func AsExperimentError(err error) (*ExperimentError, bool) {
	for err != nil {
		if ee, ok := err.(*ExperimentError); ok {
			return ee, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsCategory checks if an error is an ExperimentError with the given category.
func IsCategory(err error, category Category) bool {
	if ee, ok := AsExperimentError(err); ok {
		return ee.Category == category
	}
	return false
}

// IsCode checks if an error is an ExperimentError with the given code.
func IsCode(err error, code string) bool {
	if ee, ok := AsExperimentError(err); ok {
		return ee.Code == code
	}
	return false
}
