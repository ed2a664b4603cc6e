// Package errors provides a suggestions registry for error remediation.
// Maps error codes to context-aware suggestions that help experimenters fix issues.
package errors

import (
	"runtime"
	"sort"
)

// Context keys used to select appropriate suggestions.
const (
	// ContextOS is the operating system (e.g., "linux", "darwin", "windows")
	ContextOS = "os"

	// ContextPort is the serial port name involved in a device error.
	ContextPort = "port"
)

// OS values for platform-specific suggestions.
const (
	OSLinux   = "linux"
	OSDarwin  = "darwin"
	OSWindows = "windows"
)

// Suggestion represents a remediation suggestion with optional conditions.
type Suggestion struct {
	// Text is the suggestion message displayed to the experimenter.
	Text string

	// Conditions are key-value pairs that must all match the error context.
	// Empty conditions match any context.
	Conditions map[string]string

	// Priority determines order when multiple suggestions apply.
	// Higher priority suggestions are shown first.
	Priority int
}

// Matches returns true if this suggestion's conditions match the given context.
func (s *Suggestion) Matches(ctx map[string]string) bool {
	for key, value := range s.Conditions {
		if ctx[key] != value {
			return false
		}
	}
	return true
}

// Registry maps error codes to their remediation suggestions.
type Registry struct {
	suggestions map[string][]Suggestion
}

// NewRegistry creates a new suggestion registry.
func NewRegistry() *Registry {
	return &Registry{
		suggestions: make(map[string][]Suggestion),
	}
}

// Register adds a suggestion for an error code.
func (r *Registry) Register(code, text string) *Registry {
	r.suggestions[code] = append(r.suggestions[code], Suggestion{Text: text})
	return r
}

// RegisterWithCondition adds a suggestion that applies only when the context matches.
func (r *Registry) RegisterWithCondition(code, text string, conditions map[string]string) *Registry {
	r.suggestions[code] = append(r.suggestions[code], Suggestion{
		Text:       text,
		Conditions: conditions,
		Priority:   1,
	})
	return r
}

// Get returns the suggestions for code that match ctx, highest priority first.
func (r *Registry) Get(code string, ctx map[string]string) []string {
	var matching []Suggestion
	for _, s := range r.suggestions[code] {
		if s.Matches(ctx) {
			matching = append(matching, s)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority > matching[j].Priority
	})

	result := make([]string, len(matching))
	for i, s := range matching {
		result[i] = s.Text
	}
	return result
}

// HasSuggestions returns true if any suggestions exist for the error code.
func (r *Registry) HasSuggestions(code string) bool {
	return len(r.suggestions[code]) > 0
}

// DefaultRegistry holds the built-in suggestions.
var DefaultRegistry = buildDefaultRegistry()

func buildDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(ErrConfigNotFound, "Run 'asrt --init' to create a default settings file")
	r.Register(ErrConfigNotFound, "Pass an explicit path with --config")
	r.Register(ErrConfigParseFailed, "Check the YAML indentation near the reported line")
	r.Register(ErrConfigInvalid, "Fix the field named in the error and restart the session")
	r.Register(ErrTextNotFound, "Create experiment_text_<language>.yaml next to the settings file")

	r.Register(ErrNoGoInsufficientEligible, "Lower experiment.num_no_go_trials or raise experiment.trials_per_block")
	r.Register(ErrNoGoNoValidDistribution, "Try reducing the number of no-go trials per block")

	r.RegisterWithCondition(ErrDeviceOpenFailed, "Add your user to the 'dialout' group and log in again",
		map[string]string{ContextOS: OSLinux})
	r.RegisterWithCondition(ErrDeviceOpenFailed, "Check Device Manager for the COM port number",
		map[string]string{ContextOS: OSWindows})
	r.RegisterWithCondition(ErrDeviceOpenFailed, "List ports with 'ls /dev/tty.*'",
		map[string]string{ContextOS: OSDarwin})
	r.Register(ErrDeviceOpenFailed, "Disable the device in the settings file to run without it")

	r.Register(ErrKeyboardUnavailable, "Run asrt from an interactive terminal")

	r.Register(ErrIOWriteFailed, "Check free disk space and that the data directory is writable")
	r.Register(ErrIOPermissionDenied, "Choose another output.data_dir")
	r.Register(ErrStoreFailed, "Set output.sqlite to false to rely on the CSV file only")

	r.Register(ErrSessionInvalidInfo, "The participant number must be a whole number")

	return r
}

// AttachSuggestions adds the registered suggestions for err's code, using
// its context plus the current platform for conditional entries.
func AttachSuggestions(err *ExperimentError) *ExperimentError {
	if err == nil {
		return nil
	}
	ctx := map[string]string{ContextOS: runtime.GOOS}
	for k, v := range err.Context {
		ctx[k] = v
	}
	return err.WithSuggestions(DefaultRegistry.Get(err.Code, ctx)...)
}
