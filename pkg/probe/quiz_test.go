package probe

import (
	"context"
	"strings"
	"testing"

	"github.com/r3d91ll/asrt/pkg/config"
	"github.com/r3d91ll/asrt/pkg/display"
	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

// answers returns the key presses of one quiz round: intro, then per
// question the choice and the feedback acknowledgement. wrong questions
// (1-based) get an incorrect answer.
func answers(text *config.Catalog, wrong ...int) []string {
	keys := []string{"space"}
	for i, item := range QuizItems {
		ans := strings.TrimSpace(text.Get("Quiz", item.AnswerKey))
		key := string(rune('1' + ans[0] - '0'))
		for _, w := range wrong {
			if w == i+1 {
				if key == "1" {
					key = "2"
				} else {
					key = "1"
				}
			}
		}
		keys = append(keys, key, "space")
	}
	return keys
}

func TestQuizItems(t *testing.T) {
	if len(QuizItems) != 9 {
		t.Fatalf("got %d quiz items", len(QuizItems))
	}
	if QuizItems[0].ChoicesKey != "quiz_choices_focus" || QuizItems[5].ChoicesKey != "quiz_choices_focus" {
		t.Error("questions 1-6 use the focus choices")
	}
	if QuizItems[6].ChoicesKey != "quiz_choices_content" ||
		QuizItems[7].ChoicesKey != "quiz_choices_spontaneous" ||
		QuizItems[8].ChoicesKey != "quiz_choices_tone" {
		t.Errorf("choice keys = %+v", QuizItems[6:])
	}
}

func TestQuiz_PassFirstRound(t *testing.T) {
	text := config.DefaultText()
	keys := append(answers(text), "space")
	rec := &display.Recorder{}
	q := &Quiz{Display: rec, Input: &script{keys: keys}, Text: text}

	res, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Passed() || res.Rounds != 1 {
		t.Errorf("result = %+v", res)
	}
	texts := rec.Texts()
	if !strings.HasPrefix(texts[1], "Question 1 of 9:") {
		t.Errorf("first question = %q", texts[1])
	}
	if !strings.HasPrefix(texts[2], "Correct!") {
		t.Errorf("feedback = %q", texts[2])
	}
	if !strings.HasPrefix(texts[len(texts)-1], "Well done") {
		t.Errorf("final = %q", texts[len(texts)-1])
	}
}

func TestQuiz_RetryThenPass(t *testing.T) {
	text := config.DefaultText()
	keys := append(answers(text, 3, 9), "2")
	keys = append(keys, answers(text)...)
	keys = append(keys, "space")
	rec := &display.Recorder{}
	q := &Quiz{Display: rec, Input: &script{keys: keys}, Text: text}

	res, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Rounds != 2 || !res.Passed() {
		t.Errorf("result = %+v", res)
	}

	var decision string
	for _, f := range rec.Frames() {
		if strings.Contains(f.Text, "(PRESS 2)") {
			decision = f.Text
		}
		if strings.HasPrefix(f.Text, "Incorrect.") && f.Tone != display.Negative {
			t.Error("incorrect feedback should be negative")
		}
	}
	if !strings.HasPrefix(decision, "You answered 7 out of 9") {
		t.Errorf("decision screen = %q", decision)
	}
}

func TestQuiz_AcceptWithErrors(t *testing.T) {
	text := config.DefaultText()
	keys := append(answers(text, 1), "1", "space")
	rec := &display.Recorder{}
	q := &Quiz{Display: rec, Input: &script{keys: keys}, Text: text}

	res, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Passed() || res.Errors != 1 || res.Rounds != 1 {
		t.Errorf("result = %+v", res)
	}
	texts := rec.Texts()
	if !strings.HasPrefix(texts[len(texts)-1], "Unfortunately") {
		t.Errorf("final = %q", texts[len(texts)-1])
	}
}

func TestQuiz_EscapeAborts(t *testing.T) {
	text := config.DefaultText()
	q := &Quiz{Display: &display.Recorder{}, Input: &script{keys: []string{"space", "1", "space", "escape"}}, Text: text}
	_, err := q.Run(context.Background())
	if !werrors.IsCode(err, werrors.ErrSessionAborted) {
		t.Errorf("expected SESSION_ABORTED, got %v", err)
	}
}

func TestChoicesAndQuestionText(t *testing.T) {
	c := Choices(" Positive, Negative ,, Neutral")
	if strings.Join(c, "|") != "Positive|Negative|Neutral" {
		t.Errorf("Choices = %q", c)
	}
	got := QuestionText(2, 9, "Tone?", c[:2])
	want := "Question 2 of 9:\n\nTone?\n\nPress 1: Positive\nPress 2: Negative\n"
	if got != want {
		t.Errorf("QuestionText = %q", got)
	}
}
