package shell

import (
	"strings"

	"github.com/chzyer/readline"
)

// LanguageCompleter completes language codes at the language prompt.
// It implements the readline.AutoCompleter interface.
type LanguageCompleter struct {
	languages []string
}

// NewLanguageCompleter creates a completer over the given language codes.
func NewLanguageCompleter(languages []string) *LanguageCompleter {
	return &LanguageCompleter{languages: languages}
}

// Ensure LanguageCompleter implements readline.AutoCompleter at compile time.
var _ readline.AutoCompleter = (*LanguageCompleter)(nil)

// Do implements readline.AutoCompleter. It returns the suffixes of every
// language starting with the text before the cursor, and the length of
// that prefix.
func (c *LanguageCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if pos < 0 {
		return nil, 0
	}
	if pos > len(line) {
		pos = len(line)
	}
	prefix := strings.TrimSpace(string(line[:pos]))

	var matches [][]rune
	for _, lang := range c.languages {
		if strings.HasPrefix(lang, prefix) {
			matches = append(matches, []rune(lang[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
