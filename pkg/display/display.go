// Package display draws what the participant sees: the four stimulus
// slots, instruction and feedback screens, and rating prompts.
package display

import (
	"sync"

	"github.com/r3d91ll/asrt/pkg/sequence"
)

// Tone colors a text screen.
type Tone int

const (
	Neutral Tone = iota
	Positive
	Negative
)

// Rating is a four-point question. Labels[i] is shown under option i+1;
// Selected is the chosen option (1..4) or 0 while waiting.
type Rating struct {
	Question string
	Labels   [4]string
	Selected int
}

// Display is the surface the runner draws on. Each call replaces what is
// on screen.
type Display interface {
	// Stimulus shows the four slots with target filled. A zero target
	// shows empty slots.
	Stimulus(target sequence.Position, nogo bool) error
	// Text shows a full-screen message.
	Text(body string, tone Tone) error
	// Feedback shows the end-of-block summary.
	Feedback(header, stats, message string, tone Tone) error
	// Rating shows a four-point question.
	Rating(r Rating) error
	Close() error
}

// FrameKind says which Display method produced a Frame.
type FrameKind int

const (
	FrameStimulus FrameKind = iota
	FrameText
	FrameFeedback
	FrameRating
)

// Frame is one recorded screen.
type Frame struct {
	Kind   FrameKind
	Target sequence.Position
	NoGo   bool
	Text   string
	Tone   Tone
	Rating Rating
}

// Recorder is a Display that keeps every frame, for tests and dry runs.
type Recorder struct {
	mu     sync.Mutex
	frames []Frame
}

// Ensure Recorder implements Display at compile time.
var _ Display = (*Recorder)(nil)

func (r *Recorder) add(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *Recorder) Stimulus(target sequence.Position, nogo bool) error {
	return r.add(Frame{Kind: FrameStimulus, Target: target, NoGo: nogo})
}

func (r *Recorder) Text(body string, tone Tone) error {
	return r.add(Frame{Kind: FrameText, Text: body, Tone: tone})
}

func (r *Recorder) Feedback(header, stats, message string, tone Tone) error {
	return r.add(Frame{Kind: FrameFeedback, Text: header + "\n" + stats + "\n" + message, Tone: tone})
}

func (r *Recorder) Rating(rt Rating) error {
	return r.add(Frame{Kind: FrameRating, Text: rt.Question, Rating: rt})
}

func (r *Recorder) Close() error { return nil }

// Frames returns a copy of the recorded frames.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Texts returns the bodies of all text frames, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, f := range r.Frames() {
		if f.Kind == FrameText {
			out = append(out, f.Text)
		}
	}
	return out
}
