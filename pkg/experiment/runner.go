// Package experiment runs an ASRT session: instructions, practice and main
// blocks, per-trial stimulus and response handling, mind-wandering probes,
// feedback and data saving.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/r3d91ll/asrt/pkg/config"
	"github.com/r3d91ll/asrt/pkg/display"
	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/export"
	"github.com/r3d91ll/asrt/pkg/monitor"
	"github.com/r3d91ll/asrt/pkg/probe"
	"github.com/r3d91ll/asrt/pkg/response"
	"github.com/r3d91ll/asrt/pkg/session"
	"github.com/r3d91ll/asrt/pkg/storage"
	"github.com/r3d91ll/asrt/pkg/trial"
	"github.com/r3d91ll/asrt/pkg/trigger"
)

const (
	instructionsSection = "Instructions"
	screensSection      = "Screens"
)

// Input is where the runner reads key presses. *response.Collector
// satisfies it.
type Input interface {
	// Next waits for a press of one of keys (any key when empty); escape
	// always passes. ok is false when timeout elapses first; a timeout of
	// zero waits indefinitely.
	Next(ctx context.Context, timeout time.Duration, keys ...string) (ev response.Event, ok bool, err error)
	// Drain discards pending presses and reports whether escape was one.
	Drain() (escape bool)
}

// Options wires a Runner.
type Options struct {
	Config  *config.Config
	Text    *config.Catalog
	Session *session.Session
	Display display.Display
	Input   Input
	Trigger trigger.Emitter

	// Rand drives pool shuffles and no-go selection.
	Rand Rand

	// DataDir receives the CSV and the manifest.
	DataDir string

	// Store keeps a per-trial SQLite copy; nil disables it.
	Store *storage.Store

	// Observer receives progress events; nil means monitor.Nop.
	Observer monitor.Observer

	// Version is recorded in the manifest.
	Version string

	// Highlight is how long a chosen probe rating stays highlighted.
	// Zero uses probe.DefaultHighlight; negative disables it.
	Highlight time.Duration
}

// Runner runs one session. It is not safe for concurrent use.
type Runner struct {
	cfg      *config.Config
	text     *config.Catalog
	sess     *session.Session
	display  display.Display
	input    Input
	trigger  trigger.Emitter
	store    *storage.Store
	observer monitor.Observer
	planner  *Planner
	probe    *probe.Probe
	csv      *export.CSVConfig
	version  string

	keys    []string
	dataDir string

	// trialCount numbers trials across practice and main blocks.
	trialCount int
}

// New checks the options and returns a Runner.
func New(opts Options) (*Runner, error) {
	switch {
	case opts.Config == nil:
		return nil, werrors.Internal("runner: config is nil")
	case opts.Session == nil:
		return nil, werrors.Internal("runner: session is nil")
	case opts.Display == nil || opts.Input == nil || opts.Trigger == nil:
		return nil, werrors.Internal("runner: display, input and trigger are required")
	case opts.Rand == nil:
		return nil, werrors.Internal("runner: random source is nil")
	}
	if len(opts.Config.Experiment.ResponseKeys) != 4 {
		return nil, werrors.Config(werrors.ErrConfigInvalid, "exactly four response keys are required").
			WithContext("field", "experiment.response_keys")
	}

	text := opts.Text
	if text == nil {
		text = config.DefaultText()
	}
	observer := opts.Observer
	if observer == nil {
		observer = monitor.Nop{}
	}
	highlight := opts.Highlight
	if highlight == 0 {
		highlight = probe.DefaultHighlight
	} else if highlight < 0 {
		highlight = 0
	}

	csvCfg := export.DefaultCSVConfig()
	if opts.Config.Output.NA != "" {
		csvCfg.NAString = opts.Config.Output.NA
	}

	keys := opts.Config.Experiment.ResponseKeys
	return &Runner{
		cfg:      opts.Config,
		text:     text,
		sess:     opts.Session,
		display:  opts.Display,
		input:    opts.Input,
		trigger:  opts.Trigger,
		store:    opts.Store,
		observer: observer,
		planner: &Planner{
			Experiment: opts.Config.Experiment,
			Base:       opts.Session.Pattern,
			Rand:       opts.Rand,
		},
		probe: &probe.Probe{
			Display:   opts.Display,
			Input:     opts.Input,
			Text:      text,
			Keys:      keys,
			Highlight: highlight,
			Enabled:   opts.Config.Experiment.MWTestingInvolved,
		},
		csv:     csvCfg,
		version: opts.Version,
		keys:    keys,
		dataDir: opts.DataDir,
	}, nil
}

// DataPath returns the CSV file of the session.
func (r *Runner) DataPath() string {
	return filepath.Join(r.dataDir, r.sess.FileBase()+".csv")
}

// PlotPath returns the learning plot of the session.
func (r *Runner) PlotPath() string {
	return export.PlotPath(r.dataDir, r.sess.FileBase())
}

// ManifestPath returns the manifest file of the session.
func (r *Runner) ManifestPath() string {
	return export.ManifestPath(r.dataDir, r.sess.FileBase())
}

// Run presents the whole session. Everything collected is saved however
// the run ends; escape returns SESSION_ABORTED.
func (r *Runner) Run(ctx context.Context) (err error) {
	blocks := Blocks(r.cfg)
	r.begin(len(blocks))
	defer func() {
		err = r.finish(err)
	}()

	if err := r.intro(ctx); err != nil {
		return err
	}
	if err := r.start(ctx); err != nil {
		return err
	}

	practiceDone := false
	for _, id := range blocks {
		if !id.Practice && r.cfg.Practice.Enabled && !practiceDone {
			if err := r.screen(ctx, "end_practice", nil); err != nil {
				return err
			}
			r.pulse(ctx, trigger.EndPractice)
			practiceDone = true
		}
		if err := r.runBlock(ctx, id); err != nil {
			return err
		}
		if err := r.next(ctx, id); err != nil {
			return err
		}
	}

	log.Printf("[experiment] Data saved successfully to %s", r.DataPath())
	return r.screen(ctx, "end_experiment", nil)
}

func (r *Runner) begin(blocks int) {
	info := r.sess.Info
	if r.store != nil {
		err := r.store.BeginSession(storage.SessionRow{
			ID:          r.sess.ID,
			Participant: info.Participant,
			Session:     info.Session,
			Language:    info.Language,
			Sequence:    r.sess.Pattern.String(),
			Seed:        r.sess.Seed,
			StartedAt:   r.sess.StartedAt,
		})
		if err != nil {
			log.Printf("[store] %v", err)
		}
	}
	r.observer.SessionStarted(&monitor.SessionStartEvent{
		SessionID:   r.sess.ID,
		Participant: info.Participant,
		Session:     info.Session,
		Language:    info.Language,
		Sequence:    r.sess.Pattern.String(),
		Seed:        r.sess.Seed,
		Blocks:      blocks,
		Practice:    blocks - r.cfg.Experiment.NumBlocks,
	})
}

// intro shows the welcome, no-go and mind-wandering instructions and the
// quiz.
func (r *Runner) intro(ctx context.Context) error {
	quoted := make([]string, len(r.keys))
	for i, k := range r.keys {
		quoted[i] = "'" + k + "'"
	}
	err := r.screen(ctx, "welcome_screen", map[string]string{"keys_list": strings.Join(quoted, ", ")})
	if err != nil {
		return err
	}

	if r.cfg.Experiment.NoGoTrialsEnabled {
		err := r.screen(ctx, "nogo_screen", map[string]string{"nogo_glyph": r.cfg.Experiment.NoGoGlyph})
		if err != nil {
			return err
		}
	}

	if !r.cfg.Experiment.MWTestingInvolved {
		return nil
	}
	quiz := r.cfg.Experiment.RunQuizIfMWEnabled
	if err := probe.Instructions(ctx, r.display, r.input, r.text, quiz); err != nil {
		return err
	}
	if !quiz {
		return nil
	}
	res, err := (&probe.Quiz{Display: r.display, Input: r.input, Text: r.text}).Run(ctx)
	log.Printf("[experiment] Quiz finished after %d round(s) with %d error(s)", res.Rounds, res.Errors)
	return err
}

// start shows the start screen, sends the start trigger and counts down.
func (r *Runner) start(ctx context.Context) error {
	body := r.text.Get(screensSection, "start_main")
	code := byte(trigger.StartMain)
	if r.cfg.Practice.Enabled {
		body = r.text.Format(screensSection, "start_practice", map[string]string{
			"NUM_PRACTICE_BLOCKS": strconv.Itoa(r.cfg.Practice.NumBlocks),
		})
		code = trigger.StartPractice
	}
	if err := r.display.Text(body, display.Neutral); err != nil {
		return err
	}
	ev, _, err := r.input.Next(ctx, 0, response.KeySpace)
	if err != nil {
		return err
	}
	if ev.Key == response.KeyEscape {
		return werrors.Aborted("start screen")
	}
	r.pulse(ctx, code)

	msg := r.text.Get(screensSection, "countdown_message")
	for s := r.cfg.Experiment.CountdownS; s > 0; s-- {
		if err := r.display.Text(fmt.Sprintf("%s\n\n%d", msg, s), display.Neutral); err != nil {
			return err
		}
		if err := r.pause(ctx, time.Second); err != nil {
			return err
		}
	}
	return nil
}

// next shows the continuation screen after a block and announces the
// following block of the same kind.
func (r *Runner) next(ctx context.Context, id BlockID) error {
	if id.Practice {
		if id.Number >= r.cfg.Practice.NumBlocks {
			return nil
		}
		if err := r.screen(ctx, "next_practice", nil); err != nil {
			return err
		}
		r.pulse(ctx, trigger.NextPracticeBlock)
		return nil
	}
	if id.Number >= r.cfg.Experiment.NumBlocks {
		return nil
	}
	if err := r.screen(ctx, "next_main", nil); err != nil {
		return err
	}
	r.pulse(ctx, trigger.NextMainBlock(id.Number+1))
	return nil
}

// screen shows a text screen and waits for any key.
func (r *Runner) screen(ctx context.Context, key string, args map[string]string) error {
	section := screensSection
	if key == "welcome_screen" || key == "nogo_screen" {
		section = instructionsSection
	}
	if err := r.display.Text(r.text.Format(section, key, args), display.Neutral); err != nil {
		return err
	}
	return r.waitAny(ctx, key)
}

// waitAny discards earlier presses and waits for a new one. Escape aborts.
func (r *Runner) waitAny(ctx context.Context, where string) error {
	if r.input.Drain() {
		return werrors.Aborted(where)
	}
	ev, _, err := r.input.Next(ctx, 0)
	if err != nil {
		return err
	}
	if ev.Key == response.KeyEscape {
		return werrors.Aborted(where)
	}
	return nil
}

// pause waits for d, then checks for escape among the presses made
// meanwhile.
func (r *Runner) pause(ctx context.Context, d time.Duration) error {
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.input.Drain() {
		return werrors.Aborted("pause")
	}
	return nil
}

// pulse sends a trigger code. Write failures are logged; the session
// goes on without that marker.
func (r *Runner) pulse(ctx context.Context, code byte) {
	if err := r.trigger.Pulse(ctx, code); err != nil {
		log.Printf("[trigger] %v", err)
	}
}

// record stores a finished row in the session, the database and the
// monitor feed.
func (r *Runner) record(rec trial.Record) {
	rec = r.sess.Add(rec)
	if r.store != nil {
		if _, err := r.store.InsertTrial(r.sess.ID, &rec); err != nil {
			log.Printf("[store] %v", err)
		}
	}
	r.observer.TrialRecorded(&rec)
}

// save rewrites the CSV with every record collected so far.
func (r *Runner) save() error {
	return export.WriteFile(r.DataPath(), r.sess.Records(), r.csv)
}

// finish ends the session: data file, database row, manifest and the
// final monitor event. Interrupts are reported as aborts.
func (r *Runner) finish(err error) error {
	if errors.Is(err, context.Canceled) {
		err = werrors.Aborted("interrupt").WithCause(err)
	}
	aborted := err != nil
	if aborted {
		log.Printf("[experiment] Quitting experiment: %v", err)
	}
	r.sess.End(aborted)

	if saveErr := r.save(); saveErr != nil {
		log.Printf("[experiment] %v", saveErr)
		if err == nil {
			err = saveErr
		}
	}

	if wrote, plotErr := export.WriteLearningPlot(r.PlotPath(), r.sess.Records(), r.version); plotErr != nil {
		log.Printf("[experiment] %v", plotErr)
	} else if wrote {
		log.Printf("[experiment] Learning plot %s", r.PlotPath())
	}

	if r.store != nil {
		if storeErr := r.store.EndSession(r.sess.ID, *r.sess.EndedAt, aborted); storeErr != nil {
			log.Printf("[store] %v", storeErr)
		}
	}

	hash := export.NewHashBuilder().
		WithToolVersion(r.version).
		WithSession(r.sess.ID, r.sess.Info.Participant, r.sess.Info.Session, r.sess.Info.Language).
		WithSequence(r.sess.Pattern.String(), r.sess.Seed).
		WithTrialCount(r.sess.Len()).
		WithTimeRange(r.sess.StartedAt, r.sess.EndedAt).
		WithAborted(aborted).
		WithParameters(r.cfg.Parameters()).
		Build()
	if mErr := hash.WriteManifest(r.ManifestPath()); mErr != nil {
		log.Printf("[experiment] %v", mErr)
	} else {
		log.Printf("[experiment] Manifest %s (%s)", r.ManifestPath(), hash.ShortHash())
	}

	r.observer.SessionEnded(&monitor.SessionEndEvent{
		SessionID: r.sess.ID,
		Aborted:   aborted,
		Records:   r.sess.Len(),
	})
	return err
}
