package trial

import (
	"github.com/r3d91ll/asrt/pkg/sequence"
)

// Shuffler is the random source used to shuffle position pools.
// *rand.Rand from math/rand/v2 satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// BuildRandomPool returns a shuffled pool in which each of the four positions
// appears slots/4 times. Any remainder is dropped.
func BuildRandomPool(slots int, rng Shuffler) []sequence.Position {
	per := slots / sequence.NumPositions
	pool := make([]sequence.Position, 0, per*sequence.NumPositions)
	for pos := sequence.Position(1); pos <= sequence.NumPositions; pos++ {
		for i := 0; i < per; i++ {
			pool = append(pool, pos)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool
}

// BlockPlan is the state threaded through one block's trials: the pattern in
// effect, the pattern cursor, the random pool and the position history.
// Create one per block; it is not safe for concurrent use.
type BlockPlan struct {
	Pattern  sequence.Pattern
	Layout   Layout
	Practice bool

	// Cursor is the next pattern slot a Pattern trial will consume.
	Cursor int

	// Pool is consumed front to back, one draw per Random trial.
	Pool  []sequence.Position
	drawn int

	History History

	rng Shuffler
}

// NewBlockPlan prepares a main block of n alternating Random/Pattern trials.
// The random pool is sized from the n - n/2 Random slots.
func NewBlockPlan(p sequence.Pattern, n int, rng Shuffler) *BlockPlan {
	return &BlockPlan{
		Pattern: p,
		Layout:  MainLayout(n),
		Pool:    BuildRandomPool(n-n/2, rng),
		rng:     rng,
	}
}

// NewPracticePlan prepares a practice block of n Random trials. Practice
// trials are never classified and always carry the Undefined class.
func NewPracticePlan(p sequence.Pattern, n int, rng Shuffler) *BlockPlan {
	return &BlockPlan{
		Pattern:  p,
		Layout:   PracticeLayout(n),
		Practice: true,
		Pool:     BuildRandomPool(n, rng),
		rng:      rng,
	}
}

// Len returns the number of trials in the block.
func (b *BlockPlan) Len() int {
	return len(b.Layout)
}

// Next classifies the trial at the 1-based index and advances the plan.
// Indexes past the layout fall back to the alternation rule.
func (b *BlockPlan) Next(index int) Trial {
	typ := b.typeAt(index)

	var pos sequence.Position
	if typ == Pattern {
		pos = b.Pattern.At(b.Cursor)
		b.Cursor = (b.Cursor + 1) % sequence.NumPositions
	} else {
		pos = b.draw()
	}

	class := Undefined
	if !b.Practice {
		class = Classify(index, typ, pos, b.Pattern, b.History)
	}

	// history moves only after classification has read the old values
	b.History.Push(pos)

	return Trial{
		Index:    index,
		Type:     typ,
		Position: pos,
		Class:    class,
	}
}

// Remaining returns the number of undrawn positions left in the pool.
func (b *BlockPlan) Remaining() int {
	return len(b.Pool) - b.drawn
}

func (b *BlockPlan) typeAt(index int) Type {
	if index >= 1 && index <= len(b.Layout) {
		return b.Layout[index-1]
	}
	if index%2 == 0 {
		return Pattern
	}
	return Random
}

// draw takes the next pool position, topping the pool up with one shuffled
// permutation when the truncated pool runs out.
func (b *BlockPlan) draw() sequence.Position {
	if b.drawn >= len(b.Pool) {
		b.Pool = append(b.Pool, BuildRandomPool(sequence.NumPositions, b.rng)...)
	}
	pos := b.Pool[b.drawn]
	b.drawn++
	return pos
}

// Classify assigns the probability class of a trial at the 1-based index.
//
// The first two trials of a block are Undefined. Pattern trials are High.
// A Random trial is High when the position two back is the pattern element
// preceding pos, Trill when it equals pos (Repetition if the previous
// position does as well), and Low otherwise, including when history is unset.
func Classify(index int, typ Type, pos sequence.Position, p sequence.Pattern, h History) ProbabilityClass {
	if index <= 2 {
		return Undefined
	}
	if typ == Pattern {
		return High
	}
	if h.Minus2 == sequence.None {
		return Low
	}

	cur, ok := p.Index(pos)
	if !ok {
		return Low
	}
	if _, ok := p.Index(h.Minus2); !ok {
		return Low
	}

	expected := p.At(cur - 1)
	switch {
	case h.Minus2 == expected:
		return High
	case h.Minus2 == pos:
		if h.Minus1 == pos {
			return Repetition
		}
		return Trill
	default:
		return Low
	}
}
