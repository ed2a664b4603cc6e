// Package config tests for configuration loading and structured error handling.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

// -----------------------------------------------------------------------------
// Load Tests with Structured Errors
// -----------------------------------------------------------------------------

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/to/experiment_settings.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}

	ee, ok := werrors.AsExperimentError(err)
	if !ok {
		t.Fatalf("expected *werrors.ExperimentError, got %T", err)
	}
	if ee.Code != werrors.ErrConfigNotFound {
		t.Errorf("expected code %q, got %q", werrors.ErrConfigNotFound, ee.Code)
	}
	if ee.Category != werrors.CategoryConfig {
		t.Errorf("expected category %v, got %v", werrors.CategoryConfig, ee.Category)
	}

	foundInit := false
	for _, s := range ee.Suggestions {
		if strings.Contains(s, "--init") {
			foundInit = true
			break
		}
	}
	if !foundInit {
		t.Error("expected suggestion to mention '--init'")
	}
}

func TestLoad_YAMLParseError(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")

	invalidYAML := `experiment:
  trials_per_block: 80
    invalid_indent
  num_blocks: 20
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	_, err := Load(configPath)
	ee, ok := werrors.AsExperimentError(err)
	if !ok {
		t.Fatalf("expected *werrors.ExperimentError, got %T", err)
	}
	if ee.Code != werrors.ErrConfigParseFailed {
		t.Errorf("expected code %q, got %q", werrors.ErrConfigParseFailed, ee.Code)
	}
	if ee.Context["path"] != configPath {
		t.Errorf("expected path context %q, got %q", configPath, ee.Context["path"])
	}
	if ee.Cause == nil {
		t.Error("expected cause to be set")
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "experiment_settings.yaml")

	content := `experiment:
  trials_per_block: 40
  interference_epoch_enabled: true
  response_keys: [a, s, k, l]
devices:
  trigger:
    enabled: false
seed: 1234
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Experiment.TrialsPerBlock != 40 {
		t.Errorf("TrialsPerBlock = %d, want 40", cfg.Experiment.TrialsPerBlock)
	}
	if cfg.Experiment.NumBlocks != 20 {
		t.Errorf("NumBlocks should keep default 20, got %d", cfg.Experiment.NumBlocks)
	}
	if !cfg.Experiment.InterferenceEpochEnabled || cfg.Experiment.InterferenceEpochNum != 3 {
		t.Error("interference settings not overlaid on defaults")
	}
	if cfg.Experiment.ResponseKeys[0] != "a" {
		t.Errorf("ResponseKeys = %v", cfg.Experiment.ResponseKeys)
	}
	if cfg.Devices.Trigger.Enabled || cfg.Devices.Trigger.Baud != 2000000 {
		t.Errorf("trigger = %+v", cfg.Devices.Trigger)
	}
	if cfg.Seed != 1234 {
		t.Errorf("Seed = %d", cfg.Seed)
	}
}

// -----------------------------------------------------------------------------
// Validation Tests
// -----------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"zero trials", func(c *Config) { c.Experiment.TrialsPerBlock = 0 }, "experiment.trials_per_block"},
		{"zero blocks", func(c *Config) { c.Experiment.NumBlocks = 0 }, "experiment.num_blocks"},
		{"three keys", func(c *Config) { c.Experiment.ResponseKeys = []string{"a", "b", "c"} }, "experiment.response_keys"},
		{"duplicate keys", func(c *Config) { c.Experiment.ResponseKeys = []string{"a", "a", "c", "d"} }, "experiment.response_keys"},
		{"escape as key", func(c *Config) { c.Experiment.ResponseKeys = []string{"a", "b", "c", "escape"} }, "experiment.response_keys"},
		{"negative nogo", func(c *Config) { c.Experiment.NumNoGoTrials = -1 }, "experiment.num_no_go_trials"},
		{"nogo window zero", func(c *Config) { c.Experiment.NoGoTrialDurationS = 0 }, "experiment.nogo_trial_duration_s"},
		{"interference epoch zero", func(c *Config) {
			c.Experiment.InterferenceEpochEnabled = true
			c.Experiment.InterferenceEpochNum = 0
		}, "experiment.interference_epoch_num"},
		{"missing trigger port", func(c *Config) { c.Devices.Trigger.Port = "" }, "devices.trigger.port"},
		{"bad monitor port", func(c *Config) {
			c.Monitor.Enabled = true
			c.Monitor.Port = 70000
		}, "monitor.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ee, ok := werrors.AsExperimentError(err)
			if !ok || ee.Code != werrors.ErrConfigInvalid {
				t.Fatalf("expected CONFIG_INVALID, got %v", err)
			}
			if ee.Context["field"] != tt.field {
				t.Errorf("field = %q, want %q", ee.Context["field"], tt.field)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	if got := cfg.Experiment.ISI(); got != 120*time.Millisecond {
		t.Errorf("ISI = %v", got)
	}
	if got := cfg.Experiment.NoGoWindow(); got != 500*time.Millisecond {
		t.Errorf("NoGoWindow = %v", got)
	}
	if got := cfg.Devices.Trigger.PulseDuration(); got != 50*time.Millisecond {
		t.Errorf("PulseDuration = %v", got)
	}
	cfg.Practice.Enabled = false
	if cfg.PracticeBlocks() != 0 {
		t.Error("disabled practice should run no blocks")
	}
}

// -----------------------------------------------------------------------------
// Save / Init Tests
// -----------------------------------------------------------------------------

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "experiment_settings.yaml")
	cfg := Default()
	cfg.Experiment.NumNoGoTrials = 6
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Experiment.NumNoGoTrials != 6 {
		t.Errorf("NumNoGoTrials = %d", loaded.Experiment.NumNoGoTrials)
	}
}

func TestInitConfig_WritesSettingsAndText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment_settings.yaml")
	if err := InitConfig(path); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("settings not written: %v", err)
	}
	if _, err := LoadText(dir, DefaultLanguage); err != nil {
		t.Errorf("text not written: %v", err)
	}

	// existing files are left alone
	if err := os.WriteFile(path, []byte("seed: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitConfig(path); err != nil {
		t.Fatalf("second InitConfig: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "seed: 9\n" {
		t.Error("InitConfig overwrote an existing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || cfg.Experiment.TrialsPerBlock != 80 {
		t.Errorf("LoadOrDefault = %+v, %v", cfg, err)
	}
}

func TestParameters(t *testing.T) {
	p := Default().Parameters()
	tests := map[string]string{
		"experiment.trials_per_block": "80",
		"experiment.response_keys":    "s,d,k,l",
		"devices.trigger.port":        "COM3",
		"practice.enabled":            "true",
		"seed":                        "0",
	}
	for k, want := range tests {
		if p[k] != want {
			t.Errorf("%s = %q, want %q", k, p[k], want)
		}
	}
}
