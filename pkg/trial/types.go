// Package trial decides, for every slot in a block, which position is shown
// and how it is labeled for triplet-probability analysis.
package trial

import (
	"fmt"

	"github.com/r3d91ll/asrt/pkg/sequence"
)

// Type says whether a trial follows the pattern sequence or is random.
type Type int

const (
	Random Type = iota
	Pattern
)

// String returns the single-letter tag written to data files.
func (t Type) String() string {
	switch t {
	case Pattern:
		return "P"
	case Random:
		return "R"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ProbabilityClass labels how predictable a trial's position was given the
// two positions before it.
type ProbabilityClass int

const (
	Undefined ProbabilityClass = iota
	High
	Low
	Trill
	Repetition
)

// String returns the single-letter tag written to data files.
func (c ProbabilityClass) String() string {
	switch c {
	case High:
		return "H"
	case Low:
		return "L"
	case Trill:
		return "T"
	case Repetition:
		return "R"
	case Undefined:
		return "X"
	default:
		return fmt.Sprintf("ProbabilityClass(%d)", int(c))
	}
}

// Name returns a readable name for logs and dashboards.
func (c ProbabilityClass) Name() string {
	switch c {
	case High:
		return "high"
	case Low:
		return "low"
	case Trill:
		return "trill"
	case Repetition:
		return "repetition"
	default:
		return "undefined"
	}
}

// Trial is one classified slot of a block.
type Trial struct {
	// Index is the 1-based position of the trial within its block.
	Index    int
	Type     Type
	Position sequence.Position
	Class    ProbabilityClass
	NoGo     bool
}

// History holds the two most recently shown positions.
type History struct {
	Minus1 sequence.Position
	Minus2 sequence.Position
}

// Push records pos as the most recent position.
func (h *History) Push(pos sequence.Position) {
	h.Minus2 = h.Minus1
	h.Minus1 = pos
}

// Layout is the ordered list of trial types for a block, indexed from 0.
type Layout []Type

// MainLayout alternates Random and Pattern trials, starting with Random:
// every even 1-based trial follows the pattern.
func MainLayout(n int) Layout {
	l := make(Layout, n)
	for i := range l {
		if (i+1)%2 == 0 {
			l[i] = Pattern
		} else {
			l[i] = Random
		}
	}
	return l
}

// PracticeLayout makes every trial Random.
func PracticeLayout(n int) Layout {
	return make(Layout, n)
}

// Count returns how many slots in the layout have type t.
func (l Layout) Count(t Type) int {
	n := 0
	for _, v := range l {
		if v == t {
			n++
		}
	}
	return n
}
