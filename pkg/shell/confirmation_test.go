package shell

import (
	"errors"
	"io"
	"testing"
)

// =============================================================================
// LinePrompter Tests
// =============================================================================

func TestLinePrompter_Confirm(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y", true},
		{"yes", true},
		{"  YES ", true},
		{"Y", true},
		{"", false},
		{"n", false},
		{"no", false},
		{"yep", false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			r := &scriptReader{lines: []string{tt.answer}}
			got, err := NewLinePrompter(r).Confirm("Start?")
			if err != nil {
				t.Fatalf("Confirm: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm with %q = %v, want %v", tt.answer, got, tt.want)
			}
			if len(r.prompts) != 1 || r.prompts[0] != "Start? [y/N]: " {
				t.Errorf("prompts = %q", r.prompts)
			}
		})
	}
}

func TestLinePrompter_ReadError(t *testing.T) {
	got, err := NewLinePrompter(&scriptReader{}).Confirm("Start?")
	if !errors.Is(err, io.EOF) || got {
		t.Errorf("Confirm = %v, %v, want false, io.EOF", got, err)
	}
}

// =============================================================================
// MockPrompter Tests
// =============================================================================

func TestMockPrompter(t *testing.T) {
	tests := []struct {
		name      string
		responses []bool
		want      []bool
	}{
		{"default yes", nil, []bool{true, true}},
		{"in order", []bool{false, true}, []bool{false, true}},
		{"repeats last", []bool{false}, []bool{false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockPrompter{Responses: tt.responses}
			for i, want := range tt.want {
				got, err := m.Confirm("ok?")
				if err != nil || got != want {
					t.Errorf("call %d = %v, %v, want %v", i, got, err, want)
				}
			}
			if len(m.Prompts) != len(tt.want) {
				t.Errorf("recorded %d prompts", len(m.Prompts))
			}
		})
	}
}

func TestMockPrompter_Error(t *testing.T) {
	boom := errors.New("boom")
	m := &MockPrompter{Responses: []bool{true}, Error: boom}
	if got, err := m.Confirm("ok?"); got || !errors.Is(err, boom) {
		t.Errorf("Confirm = %v, %v", got, err)
	}
}
