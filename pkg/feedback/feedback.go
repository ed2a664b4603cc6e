// Package feedback summarizes a finished block for the participant.
package feedback

import (
	"fmt"
	"math"

	"github.com/r3d91ll/asrt/pkg/trial"
)

// Thresholds for the performance message.
const (
	MinAccuracy = 90.0
	MaxMeanRT   = 0.350
)

// Verdict selects the performance message shown after a block.
type Verdict int

const (
	GoodJob Verdict = iota
	BeMoreAccurate
	BeFaster
)

// TextKey returns the text catalog key for the verdict.
func (v Verdict) TextKey() string {
	switch v {
	case BeMoreAccurate:
		return "feedback_accurate"
	case BeFaster:
		return "feedback_faster"
	default:
		return "feedback_good_job"
	}
}

// Positive reports whether the verdict is praise.
func (v Verdict) Positive() bool {
	return v == GoodJob
}

// Summary holds the block statistics.
type Summary struct {
	// Responses counts go-trial key presses; Correct those that hit the
	// target key.
	Responses int
	Correct   int

	// MeanRT and RTSD are over the cumulative RTs of correct presses,
	// in seconds.
	MeanRT float64
	RTSD   float64

	// Accuracy is Correct/Responses as a percentage.
	Accuracy float64

	NoGoTrials  int
	Commissions int
}

// Compute summarizes the records of one block.
func Compute(records []trial.Record) Summary {
	var s Summary
	var rts []float64

	for _, r := range records {
		if r.NoGo {
			s.NoGoTrials++
			if !r.Correct {
				s.Commissions++
			}
			continue
		}
		s.Responses++
		if r.Correct {
			s.Correct++
			if r.RTCumulative != nil {
				rts = append(rts, *r.RTCumulative)
			}
		}
	}

	if s.Responses > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.Responses) * 100
	}
	s.MeanRT, s.RTSD = meanSD(rts)
	return s
}

func meanSD(xs []float64) (mean, sd float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	if len(xs) == 1 {
		return mean, 0
	}
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

// Verdict picks the message: accuracy first, then speed.
func (s Summary) Verdict() Verdict {
	switch {
	case s.Accuracy < MinAccuracy:
		return BeMoreAccurate
	case s.MeanRT > MaxMeanRT:
		return BeFaster
	default:
		return GoodJob
	}
}

// CommissionRate returns the share of no-go trials answered with a press.
func (s Summary) CommissionRate() float64 {
	if s.NoGoTrials == 0 {
		return 0
	}
	return float64(s.Commissions) / float64(s.NoGoTrials)
}

// Stats renders the statistics lines of the feedback screen.
func (s Summary) Stats() string {
	return fmt.Sprintf("Mean RT: %.2f s\nAccuracy: %.2f %%", s.MeanRT, s.Accuracy)
}
