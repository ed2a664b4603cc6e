// Package config handles experiment settings loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

// Config is the root configuration structure.
type Config struct {
	Experiment ExperimentConfig `yaml:"experiment"`
	Practice   PracticeConfig   `yaml:"practice"`
	Devices    DevicesConfig    `yaml:"devices"`
	Output     OutputConfig     `yaml:"output"`
	Monitor    MonitorConfig    `yaml:"monitor"`

	// Seed drives every random choice of a session. 0 derives one from
	// the clock; the seed actually used is saved with the data.
	Seed uint64 `yaml:"seed"`
}

// ExperimentConfig holds the block design and timing settings.
type ExperimentConfig struct {
	TrialsPerBlock int `yaml:"trials_per_block"`
	NumBlocks      int `yaml:"num_blocks"`
	BlocksPerEpoch int `yaml:"blocks_per_epoch"`

	InterferenceEpochEnabled bool `yaml:"interference_epoch_enabled"`
	InterferenceEpochNum     int  `yaml:"interference_epoch_num"`

	NoGoTrialsEnabled bool `yaml:"no_go_trials_enabled"`
	NumNoGoTrials     int  `yaml:"num_no_go_trials"`

	MWTestingInvolved  bool `yaml:"mw_testing_involved"`
	RunQuizIfMWEnabled bool `yaml:"run_quiz_if_mw_enabled"`
	FeedbackEnabled    bool `yaml:"feedback_enabled"`

	ISIDurationS       float64 `yaml:"isi_duration_s"`
	NoGoTrialDurationS float64 `yaml:"nogo_trial_duration_s"`
	FeedbackDurationS  float64 `yaml:"feedback_duration_s"`
	CountdownS         int     `yaml:"countdown_s"`

	// ResponseKeys are the keys for positions 1..4, left to right.
	ResponseKeys []string `yaml:"response_keys"`

	TargetGlyph string `yaml:"target_glyph"`
	NoGoGlyph   string `yaml:"nogo_glyph"`
}

// PracticeConfig holds practice block settings.
type PracticeConfig struct {
	Enabled   bool `yaml:"enabled"`
	NumBlocks int  `yaml:"num_blocks"`
}

// DevicesConfig holds serial device settings.
type DevicesConfig struct {
	Trigger     TriggerConfig     `yaml:"trigger"`
	ResponseBox ResponseBoxConfig `yaml:"response_box"`
}

// TriggerConfig holds the trigger port settings.
type TriggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
	PulseMS int    `yaml:"pulse_ms"`
}

// ResponseBoxConfig holds the response box port settings.
type ResponseBoxConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
}

// OutputConfig holds data output settings.
type OutputConfig struct {
	DataDir string `yaml:"data_dir"`
	SQLite  bool   `yaml:"sqlite"`

	// NA is written for missing reaction times; empty leaves the field blank.
	NA string `yaml:"csv_na"`
}

// MonitorConfig holds the live monitor server settings.
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Experiment: ExperimentConfig{
			TrialsPerBlock:           80,
			NumBlocks:                20,
			BlocksPerEpoch:           5,
			InterferenceEpochEnabled: false,
			InterferenceEpochNum:     3,
			NoGoTrialsEnabled:        true,
			NumNoGoTrials:            8,
			MWTestingInvolved:        false,
			RunQuizIfMWEnabled:       true,
			FeedbackEnabled:          true,
			ISIDurationS:             0.12,
			NoGoTrialDurationS:       0.5,
			FeedbackDurationS:        3,
			CountdownS:               10,
			ResponseKeys:             []string{"s", "d", "k", "l"},
			TargetGlyph:              "●",
			NoGoGlyph:                "✖",
		},
		Practice: PracticeConfig{
			Enabled:   true,
			NumBlocks: 1,
		},
		Devices: DevicesConfig{
			Trigger: TriggerConfig{
				Enabled: true,
				Port:    "COM3",
				Baud:    2000000,
				PulseMS: 50,
			},
			ResponseBox: ResponseBoxConfig{
				Enabled: false,
				Port:    "COM4",
				Baud:    115200,
			},
		},
		Output: OutputConfig{
			DataDir: "data",
			SQLite:  true,
		},
		Monitor: MonitorConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8090,
		},
	}
}

// Load loads configuration from a file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, werrors.ConfigWrap(err, werrors.ErrConfigNotFound, "settings file not found").
				WithContext("path", path)
		}
		return nil, werrors.IOWrap(err, werrors.ErrIOPermissionDenied, path, "failed to read settings file")
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, werrors.ConfigWrap(err, werrors.ErrConfigParseFailed, "failed to parse settings file").
			WithContext("path", path)
	}

	if err := cfg.Validate(); err != nil {
		if ee, ok := werrors.AsExperimentError(err); ok {
			ee.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Validate checks that the settings describe a runnable experiment.
func (c *Config) Validate() error {
	e := &c.Experiment
	switch {
	case e.TrialsPerBlock <= 0:
		return invalid("experiment.trials_per_block", strconv.Itoa(e.TrialsPerBlock), "must be positive")
	case e.NumBlocks <= 0:
		return invalid("experiment.num_blocks", strconv.Itoa(e.NumBlocks), "must be positive")
	case e.BlocksPerEpoch <= 0:
		return invalid("experiment.blocks_per_epoch", strconv.Itoa(e.BlocksPerEpoch), "must be positive")
	case e.InterferenceEpochEnabled && e.InterferenceEpochNum < 1:
		return invalid("experiment.interference_epoch_num", strconv.Itoa(e.InterferenceEpochNum), "must be at least 1")
	case e.NumNoGoTrials < 0:
		return invalid("experiment.num_no_go_trials", strconv.Itoa(e.NumNoGoTrials), "must not be negative")
	case e.ISIDurationS < 0:
		return invalid("experiment.isi_duration_s", ftoa(e.ISIDurationS), "must not be negative")
	case e.NoGoTrialsEnabled && e.NoGoTrialDurationS <= 0:
		return invalid("experiment.nogo_trial_duration_s", ftoa(e.NoGoTrialDurationS), "must be positive")
	case e.FeedbackDurationS < 0:
		return invalid("experiment.feedback_duration_s", ftoa(e.FeedbackDurationS), "must not be negative")
	case len(e.ResponseKeys) != 4:
		return invalid("experiment.response_keys", strconv.Itoa(len(e.ResponseKeys)), "must list exactly 4 keys")
	case c.Practice.Enabled && c.Practice.NumBlocks < 0:
		return invalid("practice.num_blocks", strconv.Itoa(c.Practice.NumBlocks), "must not be negative")
	case c.Devices.Trigger.Enabled && c.Devices.Trigger.Port == "":
		return invalid("devices.trigger.port", "", "must be set when the trigger is enabled")
	case c.Devices.ResponseBox.Enabled && c.Devices.ResponseBox.Port == "":
		return invalid("devices.response_box.port", "", "must be set when the response box is enabled")
	case c.Monitor.Enabled && (c.Monitor.Port <= 0 || c.Monitor.Port > 65535):
		return invalid("monitor.port", strconv.Itoa(c.Monitor.Port), "must be a valid TCP port")
	}

	seen := make(map[string]bool, len(e.ResponseKeys))
	for _, k := range e.ResponseKeys {
		if k == "" || k == "escape" || seen[k] {
			return invalid("experiment.response_keys", k, "keys must be distinct, non-empty and not escape")
		}
		seen[k] = true
	}
	return nil
}

func invalid(field, value, reason string) error {
	return werrors.Configf(werrors.ErrConfigInvalid, "%s %s", field, reason).
		WithContext("field", field).
		WithContext("value", value)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ISI returns the blank interval before each target.
func (e *ExperimentConfig) ISI() time.Duration {
	return seconds(e.ISIDurationS)
}

// NoGoWindow returns how long a no-go target stays on screen.
func (e *ExperimentConfig) NoGoWindow() time.Duration {
	return seconds(e.NoGoTrialDurationS)
}

// FeedbackDuration returns how long the feedback screen is shown.
func (e *ExperimentConfig) FeedbackDuration() time.Duration {
	return seconds(e.FeedbackDurationS)
}

// PulseDuration returns the trigger pulse width.
func (t *TriggerConfig) PulseDuration() time.Duration {
	return time.Duration(t.PulseMS) * time.Millisecond
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// PracticeBlocks returns the number of practice blocks to run.
func (c *Config) PracticeBlocks() int {
	if !c.Practice.Enabled {
		return 0
	}
	return c.Practice.NumBlocks
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return werrors.ConfigWrap(err, werrors.ErrConfigWriteFailed, "failed to create config directory").
			WithContext("path", dir)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return werrors.ConfigWrap(err, werrors.ErrConfigWriteFailed, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return werrors.ConfigWrap(err, werrors.ErrConfigWriteFailed, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// DefaultConfigPath returns the default settings file path.
func DefaultConfigPath() string {
	if _, err := os.Stat("experiment_settings.yaml"); err == nil {
		return "experiment_settings.yaml"
	}
	if _, err := os.Stat("config/experiment_settings.yaml"); err == nil {
		return "config/experiment_settings.yaml"
	}
	return "experiment_settings.yaml"
}

// InitConfig creates a default settings file and the English text
// catalog next to it, leaving existing files alone.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err != nil {
		if err := Default().Save(path); err != nil {
			return err
		}
	}
	return InitText(filepath.Dir(path), DefaultLanguage)
}

// Parameters flattens the settings into dotted keys ("experiment.num_blocks")
// with their YAML scalar values, for the session manifest.
func (c *Config) Parameters() map[string]string {
	out := make(map[string]string)
	data, err := yaml.Marshal(c)
	if err != nil {
		return out
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return out
	}
	flatten("", tree, out)
	return out
}

func flatten(prefix string, v interface{}, out map[string]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case []interface{}:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		out[prefix] = strings.Join(parts, ",")
	default:
		out[prefix] = fmt.Sprint(t)
	}
}
