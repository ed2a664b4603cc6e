package experiment

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/r3d91ll/asrt/pkg/config"
	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/nogo"
	"github.com/r3d91ll/asrt/pkg/sequence"
	"github.com/r3d91ll/asrt/pkg/trial"
	"github.com/r3d91ll/asrt/pkg/trigger"
)

// Rand is the random source of a session. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	trial.Shuffler
	nogo.Rand
}

// BlockID names a block. Practice and main blocks are numbered separately
// from 1.
type BlockID struct {
	Number   int
	Practice bool
}

func (id BlockID) String() string {
	if id.Practice {
		return fmt.Sprintf("practice block %d", id.Number)
	}
	return fmt.Sprintf("main block %d", id.Number)
}

// Blocks lists the blocks of a session in running order: practice blocks
// first when enabled, then the main blocks.
func Blocks(cfg *config.Config) []BlockID {
	var ids []BlockID
	if cfg.Practice.Enabled {
		for i := 1; i <= cfg.Practice.NumBlocks; i++ {
			ids = append(ids, BlockID{Number: i, Practice: true})
		}
	}
	for i := 1; i <= cfg.Experiment.NumBlocks; i++ {
		ids = append(ids, BlockID{Number: i})
	}
	return ids
}

// Block is one block planned before its first stimulus: the pattern in
// effect, the classifier state and the no-go slots.
type Block struct {
	BlockID
	Epoch   int
	Pattern sequence.Pattern

	// NoGo holds the sorted 0-based no-go slots.
	NoGo []int

	plan *trial.BlockPlan
	nogo map[int]bool
}

// Len returns the number of trials.
func (b *Block) Len() int {
	return b.plan.Len()
}

// Next classifies the trial at the 1-based index and marks it no-go when
// selected. Call it once per index, in order.
func (b *Block) Next(index int) trial.Trial {
	t := b.plan.Next(index)
	t.NoGo = b.nogo[index-1]
	return t
}

// Planner builds blocks for one participant.
type Planner struct {
	Experiment config.ExperimentConfig
	Base       sequence.Pattern
	Rand       Rand
}

// Block plans a block. No-go selection errors are returned as is; the
// caller must abort before showing any stimulus.
func (p *Planner) Block(id BlockID) (*Block, error) {
	e := &p.Experiment
	b := &Block{BlockID: id, Pattern: p.Base}

	quota := nogo.PracticeQuota(e.NumNoGoTrials)
	if id.Practice {
		b.plan = trial.NewPracticePlan(b.Pattern, e.TrialsPerBlock, p.Rand)
	} else {
		b.Epoch = sequence.Epoch(id.Number, e.BlocksPerEpoch)
		b.Pattern = sequence.ForBlock(p.Base, id.Number, sequence.Interference{
			Enabled:        e.InterferenceEpochEnabled,
			Epoch:          e.InterferenceEpochNum,
			BlocksPerEpoch: e.BlocksPerEpoch,
		})
		b.plan = trial.NewBlockPlan(b.Pattern, e.TrialsPerBlock, p.Rand)
		quota = nogo.MainQuota(e.NumNoGoTrials)
	}

	b.NoGo = []int{}
	if e.NoGoTrialsEnabled {
		selected, err := nogo.Select(b.plan.Layout, quota, p.Rand)
		if err != nil {
			if ee, ok := werrors.AsExperimentError(err); ok {
				ee.WithContext("block", id.String())
			}
			return nil, err
		}
		b.NoGo = selected
	}
	b.nogo = nogo.Set(b.NoGo)
	return b, nil
}

// WritePlan classifies every trial of the listed blocks and writes one
// line per trial with its onset trigger. Blocks are planned in running
// order, so with the session seed the output matches what a session
// presents.
func WritePlan(w io.Writer, p *Planner, ids []BlockID) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, id := range ids {
		b, err := p.Block(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "# %s  epoch=%d  sequence=%s  nogo=%v\n", id, b.Epoch, b.Pattern, plusOne(b.NoGo))
		fmt.Fprintln(tw, "trial\ttype\tclass\tposition\tnogo\tonset")
		for i := 1; i <= b.Len(); i++ {
			t := b.Next(i)
			nogoMark := ""
			if t.NoGo {
				nogoMark = "x"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d\n",
				t.Index, t.Type, t.Class, t.Position, nogoMark, trigger.Onset(t))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
