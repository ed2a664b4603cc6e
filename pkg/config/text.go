package config

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

// DefaultLanguage is used when no language is chosen.
const DefaultLanguage = "en"

//go:embed experiment_text_en.yaml
var defaultText []byte

// Catalog holds the participant-facing text for one language, organized
// as section -> key -> text.
type Catalog struct {
	Language string
	sections map[string]map[string]string

	mu      sync.Mutex
	missing map[string]bool
}

// TextPath returns the text file path for a language in dir.
func TextPath(dir, lang string) string {
	return filepath.Join(dir, fmt.Sprintf("experiment_text_%s.yaml", lang))
}

// LoadText loads the catalog for lang from dir.
func LoadText(dir, lang string) (*Catalog, error) {
	path := TextPath(dir, lang)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werrors.ConfigWrap(err, werrors.ErrTextNotFound, "language file not found").
			WithContext("path", path)
	}
	c, err := ParseText(data)
	if err != nil {
		if ee, ok := werrors.AsExperimentError(err); ok {
			ee.WithContext("path", path)
		}
		return nil, err
	}
	c.Language = lang
	return c, nil
}

// DefaultText returns the built-in English catalog.
func DefaultText() *Catalog {
	c, err := ParseText(defaultText)
	if err != nil {
		panic("config: built-in text catalog is invalid: " + err.Error())
	}
	c.Language = DefaultLanguage
	return c
}

// InitText writes the built-in English catalog to dir unless a file for
// lang already exists.
func InitText(dir, lang string) error {
	path := TextPath(dir, lang)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return werrors.ConfigWrap(err, werrors.ErrConfigWriteFailed, "failed to create text directory").
			WithContext("path", dir)
	}
	if err := os.WriteFile(path, defaultText, 0644); err != nil {
		return werrors.ConfigWrap(err, werrors.ErrConfigWriteFailed, "failed to write text file").
			WithContext("path", path)
	}
	return nil
}

// ParseText parses a YAML text catalog. A UTF-8 byte order mark is
// tolerated and an empty catalog is an error.
func ParseText(data []byte) (*Catalog, error) {
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))

	var sections map[string]map[string]string
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, werrors.ConfigWrap(err, werrors.ErrConfigParseFailed, "failed to parse text file")
	}
	if len(sections) == 0 {
		return nil, werrors.Config(werrors.ErrTextNotFound, "text file is empty")
	}
	return &Catalog{sections: sections, missing: make(map[string]bool)}, nil
}

var escapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

// Lookup returns the text for section/key with escaped newlines decoded.
func (c *Catalog) Lookup(section, key string) (string, bool) {
	s, ok := c.sections[section][key]
	if !ok {
		return "", false
	}
	return escapes.Replace(s), true
}

// Get returns the text for section/key, or a MISSING_TEXT marker that
// names the entry. Each missing entry is logged once.
func (c *Catalog) Get(section, key string) string {
	if s, ok := c.Lookup(section, key); ok {
		return s
	}
	c.reportMissing(section, key)
	return fmt.Sprintf("MISSING_TEXT: [%s] %s", section, key)
}

// GetDefault returns the text for section/key, or def when it is missing.
func (c *Catalog) GetDefault(section, key, def string) string {
	if s, ok := c.Lookup(section, key); ok {
		return s
	}
	return def
}

// Format returns Get with {name} placeholders replaced from args.
func (c *Catalog) Format(section, key string, args map[string]string) string {
	return Substitute(c.Get(section, key), args)
}

// Substitute replaces {name} placeholders in s.
func Substitute(s string, args map[string]string) string {
	if len(args) == 0 {
		return s
	}
	pairs := make([]string, 0, 2*len(args))
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Missing returns the entries requested but not found, as "[section] key".
func (c *Catalog) Missing() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.missing))
	for k := range c.missing {
		out = append(out, k)
	}
	return out
}

func (c *Catalog) reportMissing(section, key string) {
	name := fmt.Sprintf("[%s] %s", section, key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.missing[name] {
		return
	}
	c.missing[name] = true
	log.Printf("[config] Missing text for %s", name)
}

// Languages lists the languages with a text file in dir, sorted. The
// built-in language is always included.
func Languages(dir string) []string {
	found := map[string]bool{DefaultLanguage: true}
	matches, _ := filepath.Glob(filepath.Join(dir, "experiment_text_*.yaml"))
	for _, m := range matches {
		lang := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "experiment_text_"), ".yaml")
		if lang != "" {
			found[lang] = true
		}
	}
	langs := make([]string, 0, len(found))
	for l := range found {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}
