// Package errors provides smart error constructors that auto-attach suggestions.
package errors

import "fmt"

// -----------------------------------------------------------------------------
// Smart Constructors with Auto-Attached Suggestions
// -----------------------------------------------------------------------------
// These create ExperimentErrors and attach suggestions from DefaultRegistry
// based on the error code. Use them for errors shown to the experimenter.

// Config creates a configuration error with auto-attached suggestions.
func Config(code, message string) *ExperimentError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// Configf creates a configuration error with a formatted message.
func Configf(code, format string, args ...interface{}) *ExperimentError {
	return Config(code, fmt.Sprintf(format, args...))
}

// ConfigWrap wraps an error as a configuration error with auto-attached suggestions.
func ConfigWrap(cause error, code, message string) *ExperimentError {
	return AttachSuggestions(Wrap(cause, code, CategoryConfig, message))
}

// Design creates a block-design error with auto-attached suggestions.
func Design(code, message string) *ExperimentError {
	return AttachSuggestions(New(code, CategoryDesign, message))
}

// Designf creates a block-design error with a formatted message.
func Designf(code, format string, args ...interface{}) *ExperimentError {
	return Design(code, fmt.Sprintf(format, args...))
}

// DeviceWrap wraps a serial or keyboard failure. The port name is added to
// the context before suggestions are selected.
func DeviceWrap(cause error, code, port, message string) *ExperimentError {
	err := Wrap(cause, code, CategoryDevice, message)
	if port != "" {
		err.WithContext(ContextPort, port)
	}
	return AttachSuggestions(err)
}

// IOWrap wraps a file or store failure with the path involved.
func IOWrap(cause error, code, path, message string) *ExperimentError {
	err := Wrap(cause, code, CategoryIO, message)
	if path != "" {
		err.WithContext("path", path)
	}
	return AttachSuggestions(err)
}

// Session creates a session error with auto-attached suggestions.
func Session(code, message string) *ExperimentError {
	return AttachSuggestions(New(code, CategorySession, message))
}

// Aborted returns the error used when the experimenter quits with escape.
func Aborted(where string) *ExperimentError {
	return New(ErrSessionAborted, CategorySession, "session aborted by experimenter").
		WithContext("during", where)
}

// Internal creates an internal error.
func Internal(message string) *ExperimentError {
	return New(ErrInternalError, CategoryInternal, message)
}
