package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/r3d91ll/asrt/pkg/config"
	"github.com/r3d91ll/asrt/pkg/display"
	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/response"
)

const quizSection = "Quiz"

// QuizItem names the catalog keys of one quiz question. The answer is the
// 0-based index of the correct choice.
type QuizItem struct {
	TextKey    string
	AnswerKey  string
	ChoicesKey string
}

// QuizItems are asked in order each round.
var QuizItems = func() []QuizItem {
	items := make([]QuizItem, 9)
	for i := range items {
		choices := "quiz_choices_focus"
		switch i {
		case 6:
			choices = "quiz_choices_content"
		case 7:
			choices = "quiz_choices_spontaneous"
		case 8:
			choices = "quiz_choices_tone"
		}
		items[i] = QuizItem{
			TextKey:    fmt.Sprintf("quiz_q%d_text", i+1),
			AnswerKey:  fmt.Sprintf("quiz_q%d_answer", i+1),
			ChoicesKey: choices,
		}
	}
	return items
}()

// QuizResult summarizes a finished quiz.
type QuizResult struct {
	Rounds int
	// Errors is the error count of the last round.
	Errors int
}

// Passed reports whether the last round had no errors.
func (r QuizResult) Passed() bool {
	return r.Errors == 0
}

// Quiz runs the comprehension quiz. After a round with errors the
// participant chooses to continue anyway (1) or retry (2).
type Quiz struct {
	Display display.Display
	Input   Input
	Text    *config.Catalog
}

// Run plays rounds until one has no errors or the participant accepts the
// result. Escape aborts.
func (q *Quiz) Run(ctx context.Context) (QuizResult, error) {
	var res QuizResult
	for {
		errs, err := q.round(ctx)
		res.Rounds++
		res.Errors = errs
		if err != nil {
			return res, err
		}
		if errs == 0 {
			break
		}

		retry, err := q.decide(ctx, len(QuizItems)-errs)
		if err != nil {
			return res, err
		}
		if !retry {
			break
		}
	}

	if res.Passed() {
		if err := q.Display.Text(q.Text.Get(quizSection, "quiz_passed_congrats"), display.Positive); err != nil {
			return res, err
		}
	} else {
		if err := q.Display.Text(q.Text.Get(screensSection, "quiz_fail_continue"), display.Neutral); err != nil {
			return res, err
		}
	}
	return res, waitSpace(ctx, q.Input)
}

func (q *Quiz) round(ctx context.Context) (int, error) {
	if err := q.Display.Text(q.Text.Get(quizSection, "quiz_intro"), display.Neutral); err != nil {
		return 0, err
	}
	if err := waitSpace(ctx, q.Input); err != nil {
		return 0, err
	}

	errs := 0
	for i, item := range QuizItems {
		choices := Choices(q.Text.Get(quizSection, item.ChoicesKey))
		body := QuestionText(i+1, len(QuizItems), q.Text.Get(quizSection, item.TextKey), choices)
		if err := q.Display.Text(body, display.Neutral); err != nil {
			return errs, err
		}

		chosen, err := readRating(ctx, q.Input, nil, len(choices))
		if err != nil {
			return errs, err
		}
		answer := strings.TrimSpace(q.Text.Get(quizSection, item.AnswerKey))

		text, tone := "Correct!", display.Positive
		if strconv.Itoa(chosen-1) != answer {
			errs++
			text, tone = "Incorrect.", display.Negative
		}
		if err := q.Display.Text(text+"\n\nPress SPACE to continue.", tone); err != nil {
			return errs, err
		}
		if err := waitSpace(ctx, q.Input); err != nil {
			return errs, err
		}
	}
	return errs, nil
}

// decide shows the round summary and returns true when the participant
// wants to retry.
func (q *Quiz) decide(ctx context.Context, correct int) (bool, error) {
	body := config.Substitute(q.Text.Get(quizSection, "quiz_explanation_page1"),
		map[string]string{"correct_count": strconv.Itoa(correct)}) + "\n\n" +
		q.Text.Get(quizSection, "quiz_passed_start") + " (PRESS 1)\n" +
		q.Text.Get(quizSection, "quiz_failed_retry") + " (PRESS 2)"
	if err := q.Display.Text(body, display.Neutral); err != nil {
		return false, err
	}

	ev, _, err := q.Input.Next(ctx, 0, "1", "2")
	if err != nil {
		return false, err
	}
	if ev.Key == response.KeyEscape {
		return false, werrors.Aborted("quiz")
	}
	return ev.Key == "2", nil
}

// Choices splits a comma-separated choice list.
func Choices(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// QuestionText renders a quiz question with numbered choices.
func QuestionText(n, total int, text string, choices []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d of %d:\n\n%s\n\n", n, total, text)
	for i, c := range choices {
		fmt.Fprintf(&b, "Press %d: %s\n", i+1, c)
	}
	return b.String()
}
