package feedback

import (
	"math"
	"testing"

	"github.com/r3d91ll/asrt/pkg/trial"
)

func press(correct bool, rt float64) trial.Record {
	return trial.Record{Correct: correct, RTCumulative: trial.Seconds(rt), RTNonCumulative: trial.Seconds(rt)}
}

func TestCompute(t *testing.T) {
	records := []trial.Record{
		press(true, 0.3),
		press(false, 0.2),
		press(true, 0.5),
		press(true, 0.4),
		{NoGo: true, Correct: true},
		{NoGo: true, Correct: false, RTCumulative: trial.Seconds(0.25)},
	}
	s := Compute(records)

	if s.Responses != 4 || s.Correct != 3 {
		t.Errorf("responses/correct = %d/%d", s.Responses, s.Correct)
	}
	if s.Accuracy != 75 {
		t.Errorf("Accuracy = %v", s.Accuracy)
	}
	if math.Abs(s.MeanRT-0.4) > 1e-9 {
		t.Errorf("MeanRT = %v", s.MeanRT)
	}
	if math.Abs(s.RTSD-math.Sqrt(0.02/3)) > 1e-9 {
		t.Errorf("RTSD = %v", s.RTSD)
	}
	if s.NoGoTrials != 2 || s.Commissions != 1 || s.CommissionRate() != 0.5 {
		t.Errorf("no-go stats = %+v", s)
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil)
	if s.Accuracy != 0 || s.MeanRT != 0 || s.CommissionRate() != 0 {
		t.Errorf("empty summary = %+v", s)
	}
	if s.Verdict() != BeMoreAccurate {
		t.Error("an empty block has 0% accuracy")
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		name string
		s    Summary
		want Verdict
		key  string
	}{
		{"inaccurate", Summary{Accuracy: 89.9, MeanRT: 0.2}, BeMoreAccurate, "feedback_accurate"},
		{"inaccurate and slow", Summary{Accuracy: 50, MeanRT: 0.9}, BeMoreAccurate, "feedback_accurate"},
		{"slow", Summary{Accuracy: 95, MeanRT: 0.351}, BeFaster, "feedback_faster"},
		{"boundary", Summary{Accuracy: 90, MeanRT: 0.350}, GoodJob, "feedback_good_job"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.s.Verdict()
			if v != tt.want || v.TextKey() != tt.key {
				t.Errorf("Verdict = %v (%s), want %v (%s)", v, v.TextKey(), tt.want, tt.key)
			}
			if v.Positive() != (tt.want == GoodJob) {
				t.Error("Positive mismatch")
			}
		})
	}
}

func TestStats(t *testing.T) {
	got := Summary{MeanRT: 0.4123, Accuracy: 97.5}.Stats()
	if got != "Mean RT: 0.41 s\nAccuracy: 97.50 %" {
		t.Errorf("Stats = %q", got)
	}
}
