// Package nogo picks which slots of a block become no-go trials.
//
// Selection has two phases. The first keeps the Pattern/Random split of the
// quota; if no non-adjacent combination turns up within MaxAttempts draws,
// the second pools all eligible slots and only keeps the total count.
package nogo

import (
	"sort"
	"strconv"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/trial"
)

// MaxAttempts bounds the sampling loop of each phase.
const MaxAttempts = 1000

// FirstEligible is the lowest 0-based slot that may hold a no-go trial.
const FirstEligible = 2

// Rand is the random source used for sampling. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Sentinel errors, matched by code with errors.Is.
var (
	ErrInsufficientEligibleTrials = werrors.New(werrors.ErrNoGoInsufficientEligible, werrors.CategoryDesign,
		"not enough eligible trials for the requested no-go quota")
	ErrNoValidDistribution = werrors.New(werrors.ErrNoGoNoValidDistribution, werrors.CategoryDesign,
		"no non-adjacent no-go distribution found")
)

// Quota is the number of no-go trials wanted on each trial type.
type Quota struct {
	Pattern int
	Random  int
}

// Total returns the combined count.
func (q Quota) Total() int {
	return q.Pattern + q.Random
}

// MainQuota splits total between Pattern and Random slots, giving Random
// the odd one.
func MainQuota(total int) Quota {
	return Quota{Pattern: total / 2, Random: total - total/2}
}

// PracticeQuota puts every no-go trial on Random slots.
func PracticeQuota(total int) Quota {
	return Quota{Random: total}
}

// Eligible returns the 0-based Pattern and Random slots that may hold a
// no-go trial.
func Eligible(layout trial.Layout) (pattern, random []int) {
	for i := FirstEligible; i < len(layout); i++ {
		if layout[i] == trial.Pattern {
			pattern = append(pattern, i)
		} else {
			random = append(random, i)
		}
	}
	return pattern, random
}

// Select returns the sorted 0-based slots chosen as no-go trials. No two
// returned slots are adjacent and none is below FirstEligible.
func Select(layout trial.Layout, q Quota, rng Rand) ([]int, error) {
	if q.Total() == 0 {
		return []int{}, nil
	}

	pattern, random := Eligible(layout)
	if q.Pattern > len(pattern) || q.Random > len(random) || q.Pattern < 0 || q.Random < 0 {
		return nil, insufficient(q, len(pattern), len(random))
	}

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		selected := append(sample(pattern, q.Pattern, rng), sample(random, q.Random, rng)...)
		sort.Ints(selected)
		if nonAdjacent(selected) {
			return selected, nil
		}
	}

	pooled := make([]int, 0, len(pattern)+len(random))
	pooled = append(pooled, pattern...)
	pooled = append(pooled, random...)
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		selected := sample(pooled, q.Total(), rng)
		sort.Ints(selected)
		if nonAdjacent(selected) {
			return selected, nil
		}
	}

	return nil, werrors.New(ErrNoValidDistribution.Code, werrors.CategoryDesign, ErrNoValidDistribution.Message).
		WithContext("requested", strconv.Itoa(q.Total())).
		WithContext("eligible", strconv.Itoa(len(pooled))).
		WithContext("attempts", strconv.Itoa(2*MaxAttempts))
}

// Set turns selected slots into a membership lookup.
func Set(selected []int) map[int]bool {
	m := make(map[int]bool, len(selected))
	for _, i := range selected {
		m[i] = true
	}
	return m
}

func insufficient(q Quota, pattern, random int) error {
	return werrors.New(ErrInsufficientEligibleTrials.Code, werrors.CategoryDesign, ErrInsufficientEligibleTrials.Message).
		WithContextMap(map[string]string{
			"pattern_requested": strconv.Itoa(q.Pattern),
			"pattern_eligible":  strconv.Itoa(pattern),
			"random_requested":  strconv.Itoa(q.Random),
			"random_eligible":   strconv.Itoa(random),
		})
}

// sample draws k distinct elements of from, leaving from untouched.
func sample(from []int, k int, rng Rand) []int {
	if k <= 0 {
		return nil
	}
	pool := make([]int, len(from))
	copy(pool, from)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func nonAdjacent(sorted []int) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			return false
		}
	}
	return true
}
