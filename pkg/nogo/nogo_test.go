package nogo

import (
	"errors"
	"math/rand/v2"
	"testing"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/trial"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// -----------------------------------------------------------------------------
// Quota Tests
// -----------------------------------------------------------------------------

func TestQuotas(t *testing.T) {
	tests := []struct {
		name  string
		quota Quota
		want  Quota
	}{
		{"main even", MainQuota(6), Quota{Pattern: 3, Random: 3}},
		{"main odd", MainQuota(5), Quota{Pattern: 2, Random: 3}},
		{"main zero", MainQuota(0), Quota{}},
		{"practice", PracticeQuota(4), Quota{Random: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.quota != tt.want {
				t.Errorf("got %+v, want %+v", tt.quota, tt.want)
			}
		})
	}
}

func TestEligible(t *testing.T) {
	pattern, random := Eligible(trial.MainLayout(8))
	wantP := []int{3, 5, 7}
	wantR := []int{2, 4, 6}
	if !equal(pattern, wantP) || !equal(random, wantR) {
		t.Errorf("Eligible = %v / %v, want %v / %v", pattern, random, wantP, wantR)
	}
}

// -----------------------------------------------------------------------------
// Selection Invariants
// -----------------------------------------------------------------------------

func TestSelect_AlternatingTenSlots(t *testing.T) {
	layout := trial.MainLayout(10)
	for seed := uint64(0); seed < 100; seed++ {
		got, err := Select(layout, Quota{Pattern: 1, Random: 1}, newRand(seed))
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		if len(got) != 2 {
			t.Fatalf("seed %d: got %d slots", seed, len(got))
		}
		if got[0] < FirstEligible || got[1] < FirstEligible {
			t.Errorf("seed %d: ineligible slot in %v", seed, got)
		}
		if got[1] == got[0]+1 {
			t.Errorf("seed %d: adjacent slots %v", seed, got)
		}
		if layout[got[0]] == layout[got[1]] {
			t.Errorf("seed %d: type split not preserved in %v", seed, got)
		}
	}
}

func TestSelect_MainBlockInvariants(t *testing.T) {
	layout := trial.MainLayout(80)
	q := MainQuota(8)
	for seed := uint64(0); seed < 50; seed++ {
		got, err := Select(layout, q, newRand(seed))
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if len(got) != q.Total() {
			t.Fatalf("seed %d: len = %d, want %d", seed, len(got), q.Total())
		}
		var pat, rnd int
		for i, idx := range got {
			if idx < FirstEligible || idx >= len(layout) {
				t.Errorf("seed %d: slot %d out of range", seed, idx)
			}
			if i > 0 && idx <= got[i-1]+1 {
				t.Errorf("seed %d: slots not sorted and separated: %v", seed, got)
			}
			if layout[idx] == trial.Pattern {
				pat++
			} else {
				rnd++
			}
		}
		if pat != q.Pattern || rnd != q.Random {
			t.Errorf("seed %d: split %d/%d, want %d/%d", seed, pat, rnd, q.Pattern, q.Random)
		}
	}
}

func TestSelect_ZeroQuota(t *testing.T) {
	got, err := Select(trial.MainLayout(10), Quota{}, newRand(1))
	if err != nil || len(got) != 0 {
		t.Errorf("Select = %v, %v", got, err)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	layout := trial.MainLayout(40)
	a, _ := Select(layout, MainQuota(5), newRand(42))
	b, _ := Select(layout, MainQuota(5), newRand(42))
	if !equal(a, b) {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

// -----------------------------------------------------------------------------
// Fallback and Failure Tests
// -----------------------------------------------------------------------------

func TestSelect_FallsBackToPooled(t *testing.T) {
	// Eligible: 2=R, 3=P, 4=R. Every pattern/random pair is adjacent,
	// but the pooled pair {2,4} is not.
	layout := trial.Layout{trial.Random, trial.Random, trial.Random, trial.Pattern, trial.Random}
	got, err := Select(layout, Quota{Pattern: 1, Random: 1}, newRand(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(got, []int{2, 4}) {
		t.Errorf("got %v, want [2 4]", got)
	}
}

func TestSelect_NoValidDistribution(t *testing.T) {
	layout := trial.Layout{trial.Random, trial.Random, trial.Random, trial.Pattern}
	_, err := Select(layout, Quota{Pattern: 1, Random: 1}, newRand(3))
	if !errors.Is(err, ErrNoValidDistribution) {
		t.Fatalf("expected ErrNoValidDistribution, got %v", err)
	}
	if !werrors.IsCategory(err, werrors.CategoryDesign) {
		t.Error("expected design category")
	}
}

func TestSelect_InsufficientEligible(t *testing.T) {
	tests := []struct {
		name   string
		layout trial.Layout
		quota  Quota
	}{
		{"too many pattern", trial.MainLayout(10), Quota{Pattern: 5}},
		{"too many random", trial.MainLayout(10), Quota{Random: 5}},
		{"practice has no pattern slots", trial.PracticeLayout(20), Quota{Pattern: 1}},
		{"block too short", trial.MainLayout(2), Quota{Random: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Select(tt.layout, tt.quota, newRand(1))
			if !errors.Is(err, ErrInsufficientEligibleTrials) {
				t.Fatalf("expected ErrInsufficientEligibleTrials, got %v", err)
			}
			ee, _ := werrors.AsExperimentError(err)
			if !ee.HasContext() {
				t.Error("expected eligible counts in context")
			}
		})
	}
}

func TestSet(t *testing.T) {
	s := Set([]int{3, 7})
	if !s[3] || !s[7] || s[4] {
		t.Errorf("Set = %v", s)
	}
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
