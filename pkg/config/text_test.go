package config

import (
	"strings"
	"testing"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

func TestParseText_DecodesNewlines(t *testing.T) {
	c, err := ParseText([]byte("\ufeffScreens:\n  end: 'Thanks.\\n\\nBye'\n"))
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if got := c.Get("Screens", "end"); got != "Thanks.\n\nBye" {
		t.Errorf("Get = %q", got)
	}
}

func TestParseText_Empty(t *testing.T) {
	_, err := ParseText([]byte("   \n"))
	if !werrors.IsCode(err, werrors.ErrTextNotFound) {
		t.Errorf("expected TEXT_NOT_FOUND, got %v", err)
	}
}

func TestCatalog_Missing(t *testing.T) {
	c := DefaultText()

	if got := c.Get("Screens", "nope"); got != "MISSING_TEXT: [Screens] nope" {
		t.Errorf("Get = %q", got)
	}
	c.Get("Screens", "nope")
	if m := c.Missing(); len(m) != 1 || m[0] != "[Screens] nope" {
		t.Errorf("Missing = %v", m)
	}
	if got := c.GetDefault("Screens", "nope", "fallback"); got != "fallback" {
		t.Errorf("GetDefault = %q", got)
	}
}

func TestCatalog_Format(t *testing.T) {
	c := DefaultText()
	got := c.Format("Screens", "feedback_header", map[string]string{"block_num": "7"})
	if got != "Block 7 complete" {
		t.Errorf("Format = %q", got)
	}
	welcome := c.Format("Instructions", "welcome_screen", map[string]string{"keys_list": "'s', 'd', 'k', 'l'"})
	if !strings.Contains(welcome, "'s', 'd', 'k', 'l'") || strings.Contains(welcome, "{keys_list}") {
		t.Errorf("welcome not substituted: %q", welcome)
	}
}

func TestDefaultText_HasQuiz(t *testing.T) {
	c := DefaultText()
	for i := 1; i <= 9; i++ {
		key := "quiz_q" + string(rune('0'+i))
		if _, ok := c.Lookup("Quiz", key+"_text"); !ok {
			t.Errorf("missing %s_text", key)
		}
		if _, ok := c.Lookup("Quiz", key+"_answer"); !ok {
			t.Errorf("missing %s_answer", key)
		}
	}
}

func TestLoadText_NotFound(t *testing.T) {
	_, err := LoadText(t.TempDir(), "xx")
	if !werrors.IsCode(err, werrors.ErrTextNotFound) {
		t.Errorf("expected TEXT_NOT_FOUND, got %v", err)
	}
}

func TestLanguages(t *testing.T) {
	dir := t.TempDir()
	for _, lang := range []string{"hu", "de"} {
		if err := InitText(dir, lang); err != nil {
			t.Fatal(err)
		}
	}
	got := strings.Join(Languages(dir), ",")
	if got != "de,en,hu" {
		t.Errorf("Languages = %q", got)
	}
}
