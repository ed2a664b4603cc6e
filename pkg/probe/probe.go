// Package probe asks the participant about their thoughts after a block
// and runs the comprehension quiz that teaches the probe questions.
package probe

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/r3d91ll/asrt/pkg/config"
	"github.com/r3d91ll/asrt/pkg/display"
	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/response"
	"github.com/r3d91ll/asrt/pkg/trial"
)

const (
	contentSection = "MW_Probe_Content"
	pagesSection   = "MW_Probes"
	screensSection = "Screens"
)

// DefaultHighlight is how long a chosen rating stays highlighted.
const DefaultHighlight = 500 * time.Millisecond

// Input delivers key presses. *response.Collector satisfies it.
type Input interface {
	Next(ctx context.Context, timeout time.Duration, keys ...string) (response.Event, bool, error)
}

// Question is one four-point probe question: its text key and the prefix
// of its label keys (<prefix>_label_1 .. _4).
type Question struct {
	TextKey     string
	LabelPrefix string
}

// Focus is the first question; its answer picks the follow-ups.
var Focus = Question{"q1_text", "q1"}

// Follow-up questions for off-task (ratings 1, 2) and on-task (3, 4)
// answers to Focus.
var (
	OffTask = [3]Question{
		{"q2_mw_text", "q2_mw"},
		{"q3_mw_text", "q3_mw"},
		{"q4_mw_text", "q4_mw"},
	}
	OnTask = [3]Question{
		{"q2_on_task_text", "q2_on_task"},
		{"q3_on_task_text", "q3_on_task"},
		{"q4_on_task_text", "q4_on_task"},
	}
)

// FollowUps returns the follow-up questions for a focus rating.
func FollowUps(focus string) [3]Question {
	if focus == "1" || focus == "2" {
		return OffTask
	}
	return OnTask
}

// Probe runs the mind-wandering questions.
type Probe struct {
	Display display.Display
	Input   Input
	Text    *config.Catalog
	// Keys are the response keys; the key at index i answers i+1. The
	// digits 1-4 are always accepted.
	Keys      []string
	Highlight time.Duration
	Enabled   bool
	// NA fills unanswered ratings.
	NA string
}

// Run asks Focus and its three follow-ups. A disabled probe returns four
// NA ratings. Escape pads the unanswered ratings with NA and returns
// SESSION_ABORTED alongside them.
func (p *Probe) Run(ctx context.Context) ([4]string, error) {
	ratings := p.naRatings()
	if !p.Enabled {
		return ratings, nil
	}

	first, err := p.ask(ctx, fmt.Sprintf("Q1: %s", p.Text.Get(contentSection, Focus.TextKey)), Focus)
	if err != nil {
		return ratings, err
	}
	ratings[0] = first

	for i, q := range FollowUps(first) {
		text := fmt.Sprintf("Q%d: %s (Press 1-4)", i+2, p.Text.Get(contentSection, q.TextKey))
		r, err := p.ask(ctx, text, q)
		if err != nil {
			return ratings, err
		}
		ratings[i+1] = r
	}
	return ratings, nil
}

func (p *Probe) naRatings() [4]string {
	if p.NA == "" {
		return trial.NARatings()
	}
	return [4]string{p.NA, p.NA, p.NA, p.NA}
}

func (p *Probe) ask(ctx context.Context, text string, q Question) (string, error) {
	rt := display.Rating{Question: text, Labels: Labels(p.Text, q.LabelPrefix)}
	if err := p.Display.Rating(rt); err != nil {
		return "", err
	}

	rating, err := readRating(ctx, p.Input, p.Keys, 4)
	if err != nil {
		return "", err
	}

	rt.Selected = rating
	if err := p.Display.Rating(rt); err != nil {
		return "", err
	}
	if p.Highlight > 0 {
		if err := sleep(ctx, p.Highlight); err != nil {
			return "", err
		}
	}
	return strconv.Itoa(rating), nil
}

// Labels returns the four scale labels of a question. Missing inner
// labels are blank.
func Labels(text *config.Catalog, prefix string) [4]string {
	var l [4]string
	for i := range l {
		key := fmt.Sprintf("%s_label_%d", prefix, i+1)
		if i == 0 || i == 3 {
			l[i] = text.Get(contentSection, key)
		} else {
			l[i] = text.GetDefault(contentSection, key, "")
		}
	}
	return l
}

// readRating waits for an option 1..n, answered with a digit or with the
// n first response keys. Escape aborts.
func readRating(ctx context.Context, in Input, keys []string, n int) (int, error) {
	if len(keys) >= n {
		keys = keys[:n]
	} else {
		keys = nil
	}
	accepted := make([]string, 0, 2*n)
	for i := 1; i <= n; i++ {
		accepted = append(accepted, strconv.Itoa(i))
	}
	accepted = append(accepted, keys...)

	ev, _, err := in.Next(ctx, 0, accepted...)
	if err != nil {
		return 0, err
	}
	if ev.Key == response.KeyEscape {
		return 0, werrors.Aborted("rating")
	}
	if v, err := strconv.Atoi(ev.Key); err == nil && v >= 1 && v <= n {
		return v, nil
	}
	return response.KeyIndex(keys, ev.Key), nil
}

// waitSpace waits for space. Escape aborts.
func waitSpace(ctx context.Context, in Input) error {
	ev, _, err := in.Next(ctx, 0, response.KeySpace)
	if err != nil {
		return err
	}
	if ev.Key == response.KeyEscape {
		return werrors.Aborted("instructions")
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Page is one instruction page. Pages with a label prefix show the
// question's answer scale under the text.
type Page struct {
	TextKey     string
	LabelPrefix string
}

// InstructionPages introduces every probe question in order.
var InstructionPages = []Page{
	{"mw_intro", ""},
	{"mw_q1", Focus.LabelPrefix},
	{"mw_q2_off_task", OffTask[0].LabelPrefix},
	{"mw_q3_spontaneous", OffTask[1].LabelPrefix},
	{"mw_q4_affective", OffTask[2].LabelPrefix},
	{"mw_on_task_intro", ""},
	{"mw_q2_on_task_instr", OnTask[0].LabelPrefix},
	{"mw_q3_on_task_instr", OnTask[1].LabelPrefix},
	{"mw_q4_on_task_instr", OnTask[2].LabelPrefix},
	{"mw_final_note", ""},
}

// Instructions shows the instruction pages, each advanced with space.
// The last page announces the quiz when quizNext is set.
func Instructions(ctx context.Context, d display.Display, in Input, text *config.Catalog, quizNext bool) error {
	for i, page := range InstructionPages {
		prompt := text.Get(screensSection, "prompt_continue")
		if i == len(InstructionPages)-1 && quizNext {
			prompt = text.Get(screensSection, "prompt_quiz")
		}
		body := text.Get(pagesSection, page.TextKey) + "\n\n" + prompt

		var err error
		if page.LabelPrefix != "" {
			err = d.Rating(display.Rating{Question: body, Labels: Labels(text, page.LabelPrefix)})
		} else {
			err = d.Text(body, display.Neutral)
		}
		if err != nil {
			return err
		}
		if err := waitSpace(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
