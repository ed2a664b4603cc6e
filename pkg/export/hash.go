package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

// HashAlgorithm identifies the hashing algorithm used for session hashes.
const HashAlgorithm = "SHA-256"

// SessionConfig holds everything that determines a session's trial
// schedule. Two sessions with the same values present the same trials.
type SessionConfig struct {
	ToolVersion string `json:"tool_version"`
	SessionID   string `json:"session_id"`
	Participant string `json:"participant"`
	Session     string `json:"session"`
	Language    string `json:"language"`

	// Sequence is the participant's base pattern.
	Sequence string `json:"sequence"`
	Seed     uint64 `json:"seed"`

	TrialCount int `json:"trial_count"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Aborted   bool       `json:"aborted"`

	// Parameters are the flattened settings. Keys are sorted during
	// hashing.
	Parameters map[string]string `json:"parameters,omitempty"`
}

// SessionHash is the computed hash and the configuration it covers.
type SessionHash struct {
	Hash       string         `json:"hash"`
	Algorithm  string         `json:"algorithm"`
	ComputedAt time.Time      `json:"computed_at"`
	Config     *SessionConfig `json:"config"`
}

// HashBuilder constructs session hashes.
type HashBuilder struct {
	config *SessionConfig
}

// NewHashBuilder creates an empty HashBuilder.
func NewHashBuilder() *HashBuilder {
	return &HashBuilder{
		config: &SessionConfig{Parameters: make(map[string]string)},
	}
}

// WithToolVersion sets the tool version.
func (hb *HashBuilder) WithToolVersion(version string) *HashBuilder {
	hb.config.ToolVersion = version
	return hb
}

// WithSession sets the session identity.
func (hb *HashBuilder) WithSession(id, participant, session, language string) *HashBuilder {
	hb.config.SessionID = id
	hb.config.Participant = participant
	hb.config.Session = session
	hb.config.Language = language
	return hb
}

// WithSequence sets the base pattern and the random seed.
func (hb *HashBuilder) WithSequence(sequence string, seed uint64) *HashBuilder {
	hb.config.Sequence = sequence
	hb.config.Seed = seed
	return hb
}

// WithTrialCount sets the number of recorded rows.
func (hb *HashBuilder) WithTrialCount(count int) *HashBuilder {
	hb.config.TrialCount = count
	return hb
}

// WithTimeRange sets the start and end times. endTime may be nil.
func (hb *HashBuilder) WithTimeRange(startTime time.Time, endTime *time.Time) *HashBuilder {
	hb.config.StartTime = startTime
	hb.config.EndTime = endTime
	return hb
}

// WithAborted marks the session as ended early.
func (hb *HashBuilder) WithAborted(aborted bool) *HashBuilder {
	hb.config.Aborted = aborted
	return hb
}

// WithParameters adds settings parameters.
func (hb *HashBuilder) WithParameters(params map[string]string) *HashBuilder {
	for k, v := range params {
		hb.config.Parameters[k] = v
	}
	return hb
}

// Build computes the hash.
func (hb *HashBuilder) Build() *SessionHash {
	return &SessionHash{
		Hash:       computeHash(hb.config),
		Algorithm:  HashAlgorithm,
		ComputedAt: time.Now(),
		Config:     hb.config,
	}
}

// computeHash builds a canonical string in fixed field order and hashes it.
func computeHash(config *SessionConfig) string {
	var sb strings.Builder

	field := func(name, value string) {
		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(value)
		sb.WriteString("|")
	}

	field("version", config.ToolVersion)
	field("id", config.SessionID)
	field("participant", config.Participant)
	field("session", config.Session)
	field("language", config.Language)
	field("sequence", config.Sequence)
	field("seed", strconv.FormatUint(config.Seed, 10))
	field("trials", strconv.Itoa(config.TrialCount))
	field("start", config.StartTime.UTC().Format(time.RFC3339))
	if config.EndTime != nil {
		field("end", config.EndTime.UTC().Format(time.RFC3339))
	}
	field("aborted", strconv.FormatBool(config.Aborted))

	if len(config.Parameters) > 0 {
		keys := make([]string, 0, len(config.Parameters))
		for k := range config.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + config.Parameters[k]
		}
		field("params", strings.Join(pairs, ","))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 8 characters of the full hash.
func (sh *SessionHash) ShortHash() string {
	if len(sh.Hash) >= 8 {
		return sh.Hash[:8]
	}
	return sh.Hash
}

// Verify recomputes the hash and reports whether it matches.
func (sh *SessionHash) Verify() bool {
	if sh.Config == nil {
		return false
	}
	return computeHash(sh.Config) == sh.Hash
}

// ToJSON returns the session hash as indented JSON.
func (sh *SessionHash) ToJSON() (string, error) {
	data, err := json.MarshalIndent(sh, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session hash: %w", err)
	}
	return string(data), nil
}

// WriteManifest saves the session hash as JSON at path.
func (sh *SessionHash) WriteManifest(path string) error {
	data, err := sh.ToJSON()
	if err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, path, "failed to encode manifest")
	}
	if err := os.WriteFile(path, []byte(data+"\n"), 0644); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, path, "failed to write manifest")
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*SessionHash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werrors.IOWrap(err, werrors.ErrIOPermissionDenied, path, "failed to read manifest")
	}
	var sh SessionHash
	if err := json.Unmarshal(data, &sh); err != nil {
		return nil, werrors.IOWrap(err, werrors.ErrManifestInvalid, path, "failed to decode manifest")
	}
	return &sh, nil
}

// ManifestPath returns the manifest path for a data file base name.
func ManifestPath(dir, base string) string {
	return filepath.Join(dir, base+"_manifest.json")
}
