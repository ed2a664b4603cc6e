package experiment

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/r3d91ll/asrt/pkg/display"
	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/feedback"
	"github.com/r3d91ll/asrt/pkg/monitor"
	"github.com/r3d91ll/asrt/pkg/response"
	"github.com/r3d91ll/asrt/pkg/trial"
	"github.com/r3d91ll/asrt/pkg/trigger"
)

// runBlock plans and presents one block, then probes, saves and shows
// feedback.
func (r *Runner) runBlock(ctx context.Context, id BlockID) error {
	b, err := r.planner.Block(id)
	if err != nil {
		return err
	}

	r.observer.BlockStarted(&monitor.BlockStartEvent{
		Block:    id.Number,
		Practice: id.Practice,
		Epoch:    b.Epoch,
		Sequence: b.Pattern.String(),
		NoGo:     plusOne(b.NoGo),
		Trials:   b.Len(),
	})
	log.Printf("[experiment] Starting %s (sequence %s, %d no-go)", id, b.Pattern, len(b.NoGo))

	for i := 1; i <= b.Len(); i++ {
		if err := r.runTrial(ctx, b, b.Next(i)); err != nil {
			return err
		}
	}
	return r.endBlock(ctx, id)
}

// runTrial shows the blank slots for the ISI, pulses the onset code and
// collects the responses to one target.
func (r *Runner) runTrial(ctx context.Context, b *Block, t trial.Trial) error {
	r.trialCount++
	where := "trial " + strconv.Itoa(r.trialCount)

	if r.input.Drain() {
		return werrors.Aborted(where)
	}
	if err := r.display.Stimulus(0, false); err != nil {
		return err
	}
	if err := r.pause(ctx, seconds(r.cfg.Experiment.ISIDurationS)); err != nil {
		return err
	}

	code := trigger.Onset(t)
	r.pulse(ctx, code)
	log.Printf("[experiment] Trial %d onset trigger: %d", r.trialCount, code)

	// presses made during the pulse belong to no trial
	if r.input.Drain() {
		return werrors.Aborted(where)
	}
	if err := r.display.Stimulus(t.Position, t.NoGo); err != nil {
		return err
	}
	onset := time.Now()

	base := trial.Record{
		Block:         b.Number,
		TrialNumber:   r.trialCount,
		TrialInBlock:  t.Index,
		Type:          t.Type,
		Class:         t.Class,
		SequenceUsed:  r.sess.Pattern.Label(),
		Position:      t.Position,
		NoGo:          t.NoGo,
		Practice:      b.Practice,
		Epoch:         b.Epoch,
		MindWandering: trial.NARatings(),
	}
	if t.NoGo {
		return r.collectNoGo(ctx, base, onset, where)
	}
	return r.collectGo(ctx, base, onset, where)
}

// collectGo records every press until the correct key. The non-cumulative
// RT restarts at each press; the cumulative RT runs from onset.
func (r *Runner) collectGo(ctx context.Context, base trial.Record, onset time.Time, where string) error {
	correctKey := r.keys[base.Position-1]
	since := onset
	for {
		ev, _, err := r.input.Next(ctx, 0, r.keys...)
		if err != nil {
			return err
		}
		if ev.Key == response.KeyEscape {
			return werrors.Aborted(where)
		}

		rec := base
		rec.RTNonCumulative = trial.Seconds(ev.Since(since))
		rec.RTCumulative = trial.Seconds(ev.Since(onset))
		rec.CorrectKey = correctKey
		rec.ResponseKey = ev.Key
		rec.Correct = ev.Key == correctKey

		code := trigger.Response(response.KeyIndex(r.keys, ev.Key), rec.Correct, false)
		r.pulse(ctx, code)
		log.Printf("[experiment] Response trigger: %d", code)
		r.record(rec)

		if rec.Correct {
			return nil
		}
		since = ev.At
	}
}

// collectNoGo keeps the target up for the no-go window. The first press
// is a commission error; later presses are ignored. Without a press one
// correct row with missing RTs is recorded.
func (r *Runner) collectNoGo(ctx context.Context, base trial.Record, onset time.Time, where string) error {
	deadline := onset.Add(seconds(r.cfg.Experiment.NoGoTrialDurationS))
	base.CorrectKey = trial.NoGoKey

	logged := false
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		ev, ok, err := r.input.Next(ctx, remaining, r.keys...)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if ev.Key == response.KeyEscape {
			return werrors.Aborted(where)
		}
		if logged {
			continue
		}

		rec := base
		rt := ev.Since(onset)
		rec.RTNonCumulative = trial.Seconds(rt)
		rec.RTCumulative = trial.Seconds(rt)
		rec.ResponseKey = ev.Key
		rec.Correct = false

		code := trigger.Response(response.KeyIndex(r.keys, ev.Key), false, true)
		r.pulse(ctx, code)
		log.Printf("[experiment] Response trigger: %d (No-Go Error)", code)
		r.record(rec)
		logged = true
	}

	if !logged {
		rec := base
		rec.ResponseKey = trial.NoResponse
		rec.Correct = true
		r.record(rec)
	}
	return nil
}

// endBlock runs the probe, backfills its ratings, saves and shows the
// feedback screen.
func (r *Runner) endBlock(ctx context.Context, id BlockID) error {
	ratings, probeErr := r.probe.Run(ctx)
	r.sess.BackfillBlock(id.Practice, id.Number, ratings)
	if r.store != nil {
		if err := r.store.UpdateBlockRatings(r.sess.ID, id.Practice, id.Number, ratings); err != nil {
			log.Printf("[store] %v", err)
		}
	}
	if probeErr != nil {
		return probeErr
	}

	if err := r.save(); err != nil {
		return err
	}
	log.Printf("[experiment] Data for %s saved.", id)

	summary := feedback.Compute(r.sess.Block(id.Practice, id.Number))
	r.observer.BlockEnded(monitor.NewBlockEndEvent(id.Number, id.Practice, summary, ratings))

	if !r.cfg.Experiment.FeedbackEnabled {
		return nil
	}
	verdict := summary.Verdict()
	tone := display.Negative
	if verdict.Positive() {
		tone = display.Positive
	}
	header := r.text.Format(screensSection, "feedback_header", map[string]string{"block_num": strconv.Itoa(id.Number)})
	if err := r.display.Feedback(header, summary.Stats(), r.text.Get(screensSection, verdict.TextKey()), tone); err != nil {
		return err
	}
	r.pulse(ctx, trigger.Feedback(id.Practice))
	return r.pause(ctx, seconds(r.cfg.Experiment.FeedbackDurationS))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func plusOne(slots []int) []int {
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = s + 1
	}
	return out
}
