package trial

import "github.com/r3d91ll/asrt/pkg/sequence"

// NoGoKey is the expected key recorded for no-go trials.
const NoGoKey = "NoGo"

// NoResponse is the response key recorded when nothing was pressed.
const NoResponse = "None"

// NARating fills mind-wandering ratings that were not collected.
const NARating = "NA"

// Record is one persisted data row. Go trials produce one Record per key
// press; no-go trials produce exactly one.
type Record struct {
	Participant string
	Session     string

	Block        int
	TrialNumber  int
	TrialInBlock int

	Type         Type
	Class        ProbabilityClass
	SequenceUsed string
	Position     sequence.Position

	// Reaction times in seconds; nil when no response was given.
	RTNonCumulative *float64
	RTCumulative    *float64

	CorrectKey  string
	ResponseKey string
	Correct     bool

	NoGo     bool
	Practice bool
	Epoch    int

	MindWandering [4]string
}

// NARatings returns four NA ratings.
func NARatings() [4]string {
	return [4]string{NARating, NARating, NARating, NARating}
}

// Seconds returns a pointer to v, for filling RT fields.
func Seconds(v float64) *float64 {
	return &v
}

// BackfillRatings sets the mind-wandering ratings on every record.
func BackfillRatings(records []Record, ratings [4]string) {
	for i := range records {
		records[i].MindWandering = ratings
	}
}
