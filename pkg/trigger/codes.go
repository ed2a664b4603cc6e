// Package trigger derives the hardware trigger codes for trials, responses
// and session events, and pulses them to a serial port.
package trigger

import (
	"github.com/r3d91ll/asrt/pkg/sequence"
	"github.com/r3d91ll/asrt/pkg/trial"
)

// Onset bases for go trials. The stimulus position 1..4 is added.
const (
	GoPattern          = 101
	GoRandomHigh       = 111
	GoRandomLow        = 121
	GoRandomTrill      = 131
	GoRandomRepetition = 141
	GoUndefined        = 151
)

// Onset bases for no-go trials. The stimulus position 1..4 is added.
const (
	NoGoPatternHigh = 201
	NoGoRandomHigh  = 211
	NoGoLow         = 221
	NoGoTrill       = 231
	NoGoRepetition  = 241
	NoGoUndefined   = 251
)

// Response bases. The 1-based key number is added.
const (
	ResponseCorrect    = 71
	ResponseIncorrect  = 81
	ResponseCommission = 91
)

// Session event codes.
const (
	StartPractice     = 90
	StartMain         = 11
	NextPracticeBlock = 98
	EndPractice       = 99
	FeedbackMain      = 160
	FeedbackPractice  = 161
)

// NextMainBlock returns the code announcing main block number next.
func NextMainBlock(next int) byte {
	return byte(10 + next)
}

// Onset returns the code sent at target onset.
func Onset(t trial.Trial) byte {
	return TrialOnset(t.NoGo, t.Type, t.Class, t.Position)
}

// TrialOnset maps a trial's no-go flag, type, class and position to its
// onset code.
//
// Go trials are keyed on type first: every Pattern trial uses the pattern
// base regardless of class. No-go trials are keyed on class first, so an
// Undefined Pattern trial at the start of a block gets the undefined base.
func TrialOnset(nogo bool, typ trial.Type, class trial.ProbabilityClass, pos sequence.Position) byte {
	var base int
	if !nogo {
		switch {
		case typ == trial.Pattern:
			base = GoPattern
		case class == trial.High:
			base = GoRandomHigh
		case class == trial.Low:
			base = GoRandomLow
		case class == trial.Trill:
			base = GoRandomTrill
		case class == trial.Repetition:
			base = GoRandomRepetition
		default:
			base = GoUndefined
		}
	} else {
		switch {
		case typ == trial.Pattern && class == trial.High:
			base = NoGoPatternHigh
		case typ == trial.Random && class == trial.High:
			base = NoGoRandomHigh
		case class == trial.Low:
			base = NoGoLow
		case class == trial.Trill:
			base = NoGoTrill
		case class == trial.Repetition:
			base = NoGoRepetition
		default:
			base = NoGoUndefined
		}
	}
	return byte(base + int(pos))
}

// Response returns the code for a key press. key is 1-based; commission
// marks a press during a no-go trial.
func Response(key int, correct, commission bool) byte {
	switch {
	case commission:
		return byte(ResponseCommission + key)
	case correct:
		return byte(ResponseCorrect + key)
	default:
		return byte(ResponseIncorrect + key)
	}
}

// Feedback returns the feedback screen code.
func Feedback(practice bool) byte {
	if practice {
		return FeedbackPractice
	}
	return FeedbackMain
}
