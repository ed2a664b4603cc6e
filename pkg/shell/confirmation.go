package shell

import (
	"strings"
)

// Prompter asks the experimenter to confirm the entered session details
// before the participant starts. The interface enables mocking in tests.
type Prompter interface {
	// Confirm displays a message and returns true if the answer is "yes"
	// or "y"; anything else, including an empty answer, is no.
	Confirm(message string) (bool, error)
}

// LinePrompter implements Prompter on top of a LineReader.
type LinePrompter struct {
	lr LineReader
}

// NewLinePrompter creates a prompter reading answers from lr.
func NewLinePrompter(lr LineReader) *LinePrompter {
	return &LinePrompter{lr: lr}
}

// Confirm implements Prompter. The prompt is suffixed with " [y/N]: ".
func (p *LinePrompter) Confirm(message string) (bool, error) {
	p.lr.SetPrompt(message + " [y/N]: ")
	line, err := p.lr.Readline()
	if err != nil {
		return false, err
	}
	answer := strings.TrimSpace(strings.ToLower(line))
	return answer == "yes" || answer == "y", nil
}

// Ensure LinePrompter implements Prompter at compile time.
var _ Prompter = (*LinePrompter)(nil)

// MockPrompter is a test implementation of Prompter that returns
// predefined responses in order, repeating the last one.
type MockPrompter struct {
	Responses []bool
	Error     error
	// Prompts records all messages passed to Confirm.
	Prompts []string
}

// Confirm implements Prompter.Confirm for testing.
func (m *MockPrompter) Confirm(message string) (bool, error) {
	m.Prompts = append(m.Prompts, message)
	if m.Error != nil {
		return false, m.Error
	}
	if len(m.Responses) == 0 {
		return true, nil
	}
	i := len(m.Prompts) - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

// Ensure MockPrompter implements Prompter at compile time.
var _ Prompter = (*MockPrompter)(nil)
