// Package export tests for session hash generation.
package export

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

func sampleBuilder(start time.Time) *HashBuilder {
	return NewHashBuilder().
		WithToolVersion("1.0.0").
		WithSession("c0ffee", "7", "1", "en").
		WithSequence("1,3,4,2", 42).
		WithTrialCount(1600).
		WithTimeRange(start, nil).
		WithParameters(map[string]string{
			"experiment.trials_per_block": "80",
			"experiment.num_blocks":       "20",
		})
}

func TestHashDeterminism(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := sampleBuilder(start).Build()
	b := sampleBuilder(start).Build()
	if a.Hash != b.Hash {
		t.Errorf("same config gave %s and %s", a.Hash, b.Hash)
	}
	if len(a.Hash) != 64 || a.Algorithm != HashAlgorithm {
		t.Errorf("unexpected hash %q (%s)", a.Hash, a.Algorithm)
	}
}

func TestHashDifference(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	base := sampleBuilder(start).Build().Hash

	tests := []struct {
		name   string
		mutate func(*HashBuilder)
	}{
		{"seed", func(hb *HashBuilder) { hb.WithSequence("1,3,4,2", 43) }},
		{"sequence", func(hb *HashBuilder) { hb.WithSequence("1,2,3,4", 42) }},
		{"participant", func(hb *HashBuilder) { hb.WithSession("c0ffee", "8", "1", "en") }},
		{"parameter", func(hb *HashBuilder) {
			hb.WithParameters(map[string]string{"experiment.num_blocks": "10"})
		}},
		{"aborted", func(hb *HashBuilder) { hb.WithAborted(true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hb := sampleBuilder(start)
			tt.mutate(hb)
			if hb.Build().Hash == base {
				t.Error("hash did not change")
			}
		})
	}
}

func TestTimeZoneIndependence(t *testing.T) {
	utc := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("CET", 3600))
	if sampleBuilder(utc).Build().Hash != sampleBuilder(local).Build().Hash {
		t.Error("hash should not depend on the time zone")
	}
}

func TestShortHashAndVerify(t *testing.T) {
	sh := sampleBuilder(time.Now()).Build()
	if sh.ShortHash() != sh.Hash[:8] {
		t.Errorf("ShortHash = %q", sh.ShortHash())
	}
	if !sh.Verify() {
		t.Error("fresh hash should verify")
	}
	sh.Config.Seed++
	if sh.Verify() {
		t.Error("tampered config should not verify")
	}
	if (&SessionHash{Hash: "x"}).Verify() {
		t.Error("nil config should not verify")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	end := time.Now()
	sh := sampleBuilder(end.Add(-time.Hour)).WithTimeRange(end.Add(-time.Hour), &end).Build()

	path := ManifestPath(dir, "participant_7_session_1_2026-03-01_100000_data")
	if !strings.HasSuffix(path, "_data_manifest.json") {
		t.Errorf("ManifestPath = %q", path)
	}
	if err := sh.WriteManifest(path); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	loaded, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if loaded.Hash != sh.Hash || !loaded.Verify() {
		t.Error("loaded manifest should verify against its own config")
	}
}

func TestReadManifest_Errors(t *testing.T) {
	if _, err := ReadManifest(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := WriteFile(bad, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadManifest(bad); !werrors.IsCode(err, werrors.ErrManifestInvalid) {
		t.Errorf("expected MANIFEST_INVALID, got %v", err)
	}
}
