// Package shell provides the interactive participant dialog shown before
// a session starts.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/session"
)

// LineReader is the part of *readline.Instance the dialog uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Dialog collects participant, session and language.
type Dialog struct {
	lr        LineReader
	out       io.Writer
	prompter  Prompter
	languages []string
}

// Config holds dialog configuration.
type Config struct {
	HistoryFile string
	// Languages offered for tab completion.
	Languages []string
}

// New creates a readline-backed dialog on the terminal.
func New(cfg Config) (*Dialog, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    NewLanguageCompleter(cfg.Languages),
	})
	if err != nil {
		return nil, err
	}
	return NewWithReader(rl, rl.Stdout(), cfg.Languages), nil
}

// NewWithReader creates a dialog over any LineReader. Answers to the final
// confirmation are read from the same reader.
func NewWithReader(lr LineReader, out io.Writer, languages []string) *Dialog {
	return &Dialog{lr: lr, out: out, prompter: NewLinePrompter(lr), languages: languages}
}

// SetPrompter replaces the confirmation prompter.
func (d *Dialog) SetPrompter(p Prompter) {
	d.prompter = p
}

// Close releases the terminal.
func (d *Dialog) Close() error {
	return d.lr.Close()
}

// Ask fills the fields of def the experimenter leaves empty with def's
// values, validates them and asks for confirmation. Interrupt or EOF
// aborts the session.
func (d *Dialog) Ask(def session.Info) (session.Info, error) {
	fmt.Fprintln(d.out, "ASRT session setup. Press Enter to accept the value in brackets.")
	for {
		info, err := d.askOnce(def)
		if err != nil {
			return session.Info{}, err
		}

		ok, err := d.prompter.Confirm(fmt.Sprintf("Start participant %s, session %s (%s)?",
			info.Participant, info.Session, info.Language))
		if err != nil {
			return session.Info{}, d.readErr(err)
		}
		if ok {
			return info, nil
		}
		def = info
	}
}

func (d *Dialog) askOnce(def session.Info) (session.Info, error) {
	var info session.Info
	for {
		v, err := d.field("Participant", def.Participant)
		if err != nil {
			return info, err
		}
		info.Participant = v
		if err := (session.Info{Participant: v, Session: "x", Language: "x"}).Validate(); err != nil {
			fmt.Fprintf(d.out, "Participant must be a whole number, got %q.\n", v)
			continue
		}
		break
	}

	v, err := d.field("Session", def.Session)
	if err != nil {
		return info, err
	}
	info.Session = v

	label := "Language"
	if len(d.languages) > 0 {
		label = fmt.Sprintf("Language (%s)", strings.Join(d.languages, ", "))
	}
	v, err = d.field(label, def.Language)
	if err != nil {
		return info, err
	}
	info.Language = v

	return info, info.Validate()
}

func (d *Dialog) field(label, def string) (string, error) {
	d.lr.SetPrompt(fmt.Sprintf("%s [%s]: ", label, def))
	line, err := d.lr.Readline()
	if err != nil {
		return "", d.readErr(err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (d *Dialog) readErr(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return werrors.Aborted("participant dialog")
	}
	return werrors.Internal("participant dialog: " + err.Error()).WithCause(err)
}
