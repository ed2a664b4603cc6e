package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/r3d91ll/asrt/pkg/config"
	"github.com/r3d91ll/asrt/pkg/response"
)

// -----------------------------------------------------------------------------
// Seed Tests
// -----------------------------------------------------------------------------

func TestSessionSeed(t *testing.T) {
	now := time.Unix(0, 1700000000123456789)

	tests := []struct {
		name       string
		flagSeed   uint64
		configured uint64
		want       uint64
	}{
		{"flag wins", 7, 42, 7},
		{"configured", 0, 42, 42},
		{"clock", 0, 0, uint64(now.UnixNano())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sessionSeed(tt.flagSeed, tt.configured, now); got != tt.want {
				t.Errorf("sessionSeed(%d, %d) = %d, want %d", tt.flagSeed, tt.configured, got, tt.want)
			}
		})
	}
}

func TestNewRand_Reproducible(t *testing.T) {
	a, b := newRand(99), newRand(99)
	for i := 0; i < 10; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("draw %d differs: %d != %d", i, x, y)
		}
	}
}

// -----------------------------------------------------------------------------
// Response Box Tests
// -----------------------------------------------------------------------------

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestAddResponseBox_Disabled(t *testing.T) {
	input := response.NewCollector()
	rb := config.ResponseBoxConfig{Enabled: false, Port: "/dev/does-not-exist"}
	if box := addResponseBox(context.Background(), input, rb, []string{"s", "d", "j", "k"}); box != nil {
		t.Error("disabled box was opened")
	}
}

func TestAddResponseBox_UnavailableFallsBackToKeyboard(t *testing.T) {
	logs := captureLog(t)
	input := response.NewCollector()
	rb := config.ResponseBoxConfig{Enabled: true, Port: "/dev/does-not-exist", Baud: 115200}

	box := addResponseBox(context.Background(), input, rb, []string{"s", "d", "j", "k"})
	if box != nil {
		box.Close()
		t.Fatal("expected no box for a missing port")
	}
	if !strings.Contains(logs.String(), "Continuing with keyboard-only responses") {
		t.Errorf("log = %q", logs.String())
	}

	// The collector still takes keyboard presses.
	input.Push(response.Event{Key: "d"})
	ev, ok, err := input.Next(context.Background(), 50*time.Millisecond)
	if err != nil || !ok || ev.Key != "d" {
		t.Errorf("Next = %+v, %v, %v", ev, ok, err)
	}
	if errs := input.Errors(); len(errs) != 0 {
		t.Errorf("source errors = %v", errs)
	}
}
