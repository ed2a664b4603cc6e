// ASRT - Alternating Serial Reaction Time experiment
//
// asrt presents an alternating serial reaction time task with optional
// no-go trials and mind-wandering probes on a terminal, sends event
// triggers to an EEG amplifier over a serial port and records every
// response.
//
// Components:
//   - sequence, trial, nogo: block design and trial classification
//   - trigger, response: serial trigger port, keyboard and response box
//   - experiment: the session runner
//   - export, storage: CSV, manifest and SQLite output
//   - monitor: live feed for the experimenter
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/r3d91ll/asrt/pkg/config"
	"github.com/r3d91ll/asrt/pkg/display"
	werrors "github.com/r3d91ll/asrt/pkg/errors"
	"github.com/r3d91ll/asrt/pkg/experiment"
	"github.com/r3d91ll/asrt/pkg/monitor"
	"github.com/r3d91ll/asrt/pkg/response"
	"github.com/r3d91ll/asrt/pkg/sequence"
	"github.com/r3d91ll/asrt/pkg/session"
	"github.com/r3d91ll/asrt/pkg/shell"
	"github.com/r3d91ll/asrt/pkg/storage"
	"github.com/r3d91ll/asrt/pkg/trigger"
)

const version = "1.0.0"

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Settings file path (default: ./experiment_settings.yaml)")
	initConfig := flag.Bool("init", false, "Write default settings and English text, then exit")
	showVersion := flag.Bool("version", false, "Show version and exit")
	participant := flag.String("participant", "", "Participant number (asked when empty)")
	sessionName := flag.String("session", "", "Session number (asked when empty)")
	language := flag.String("language", "", "Text language (asked when empty)")
	seed := flag.Uint64("seed", 0, "Random seed (overrides settings; 0 derives one from the clock)")
	plan := flag.Bool("plan", false, "Print the classified trial schedule and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ASRT %s\n", version)
		os.Exit(0)
	}

	// Determine config path
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}
	cfgDir := filepath.Dir(cfgPath)

	if *initConfig {
		if err := config.InitConfig(cfgPath); err != nil {
			fail(err)
		}
		fmt.Printf("Settings initialized at: %s\n", cfgPath)
		fmt.Printf("Text catalog: %s\n", config.TextPath(cfgDir, config.DefaultLanguage))
		os.Exit(0)
	}

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		fail(err)
	}
	cfg.Seed = sessionSeed(*seed, cfg.Seed, time.Now())

	info := session.DefaultInfo()
	given := *participant != "" && *sessionName != "" && *language != ""
	if *participant != "" {
		info.Participant = *participant
	}
	if *sessionName != "" {
		info.Session = *sessionName
	}
	if *language != "" {
		info.Language = *language
	}

	if *plan {
		if err := info.Validate(); err != nil {
			fail(err)
		}
		planner := &experiment.Planner{
			Experiment: cfg.Experiment,
			Base:       sequence.ForParticipant(info.ParticipantNumber()),
			Rand:       newRand(cfg.Seed),
		}
		fmt.Printf("# participant %s  seed %d\n", info.Participant, cfg.Seed)
		if err := experiment.WritePlan(os.Stdout, planner, experiment.Blocks(cfg)); err != nil {
			fail(err)
		}
		os.Exit(0)
	}

	// Ask for whatever the flags left out
	if !given {
		homeDir, _ := os.UserHomeDir()
		dialog, err := shell.New(shell.Config{
			HistoryFile: filepath.Join(homeDir, ".asrt_history"),
			Languages:   config.Languages(cfgDir),
		})
		if err != nil {
			fail(err)
		}
		info, err = dialog.Ask(info)
		dialog.Close()
		if err != nil {
			fail(err)
		}
	}

	if err := run(cfg, cfgDir, info); err != nil {
		fail(err)
	}
}

func run(cfg *config.Config, cfgDir string, info session.Info) error {
	text, err := config.LoadText(cfgDir, info.Language)
	if err != nil {
		if info.Language != config.DefaultLanguage {
			return err
		}
		text = config.DefaultText()
	}

	sess, err := session.New(info, cfg.Seed)
	if err != nil {
		return err
	}

	dataDir := cfg.Output.DataDir
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, dataDir, "failed to create data directory")
	}

	// Log to a file; stdout belongs to the participant screen
	logPath := filepath.Join(dataDir, sess.FileBase()+".log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, logPath, "failed to open log file")
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	defer log.SetOutput(os.Stderr)

	fmt.Printf("Participant %s, session %s, sequence %s, seed %d\n",
		info.Participant, info.Session, sess.Pattern, cfg.Seed)
	log.Printf("[experiment] ASRT %s session %s, participant %s, sequence %s, seed %d",
		version, sess.ID, info.Participant, sess.Pattern, cfg.Seed)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			log.Printf("[experiment] Interrupted, saving data")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Devices
	tr := cfg.Devices.Trigger
	emitter, err := trigger.Open(tr.Enabled, tr.Port, tr.Baud, tr.PulseDuration())
	if err != nil {
		fmt.Printf("Warning: trigger port %s unavailable, triggers are logged only\n", tr.Port)
	}
	defer emitter.Close()

	input := response.NewCollector()
	if box := addResponseBox(ctx, input, cfg.Devices.ResponseBox, cfg.Experiment.ResponseKeys); box != nil {
		defer box.Close()
	}

	// Optional SQLite copy of every trial
	var store *storage.Store
	if cfg.Output.SQLite {
		dbPath := filepath.Join(dataDir, "asrt.db")
		store, err = storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var observer monitor.Observer = monitor.Nop{}
	if cfg.Monitor.Enabled {
		srvCfg := monitor.DefaultServerConfig()
		srvCfg.Host = cfg.Monitor.Host
		srvCfg.Port = cfg.Monitor.Port
		hub := monitor.NewHub()
		srv := monitor.NewServer(srvCfg, hub)
		if err := srv.Start(); err != nil {
			fmt.Printf("Warning: monitor unavailable: %v\n", err)
		} else {
			fmt.Printf("Monitor: http://%s/status\n", srv.Address())
			observer = hub
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer shutdownCancel()
				srv.Shutdown(shutdownCtx)
			}()
		}
	}

	// The keyboard goes raw last so the messages above print normally
	kb, err := response.OpenKeyboard()
	if err != nil {
		return err
	}
	input.Add(ctx, kb)

	screen := display.NewTerminal(display.TerminalConfig{
		Writer:      os.Stdout,
		TargetGlyph: cfg.Experiment.TargetGlyph,
		NoGoGlyph:   cfg.Experiment.NoGoGlyph,
	})

	runner, err := experiment.New(experiment.Options{
		Config:   cfg,
		Text:     text,
		Session:  sess,
		Display:  screen,
		Input:    input,
		Trigger:  emitter,
		Rand:     newRand(cfg.Seed),
		DataDir:  dataDir,
		Store:    store,
		Observer: observer,
		Version:  version,
	})
	if err != nil {
		kb.Close()
		return err
	}

	err = runner.Run(ctx)
	screen.Close()
	kb.Close()
	for _, srcErr := range input.Errors() {
		log.Printf("[response] %v", srcErr)
	}
	if werrors.IsCode(err, werrors.ErrSessionAborted) {
		fmt.Printf("\nSession aborted. Data saved to %s\n", runner.DataPath())
		return nil
	}
	if err == nil {
		fmt.Printf("Data saved to %s\n", runner.DataPath())
	}
	return err
}

// sessionSeed picks the flag seed over the configured one; with neither
// set the seed comes from the clock.
func sessionSeed(flagSeed, configured uint64, now time.Time) uint64 {
	if flagSeed != 0 {
		return flagSeed
	}
	if configured != 0 {
		return configured
	}
	return uint64(now.UnixNano())
}

// addResponseBox attaches the response box to input when enabled. A box
// that cannot be opened leaves the session on keyboard input only.
func addResponseBox(ctx context.Context, input *response.Collector, rb config.ResponseBoxConfig, keys []string) *response.Box {
	if !rb.Enabled {
		return nil
	}
	box, err := response.OpenBox(rb.Port, rb.Baud, keys)
	if err != nil {
		fmt.Printf("Warning: response box %s unavailable, using the keyboard only\n", rb.Port)
		log.Printf("[response] %v", err)
		log.Printf("[response] Continuing with keyboard-only responses")
		return nil
	}
	input.Add(ctx, box)
	return box
}

// newRand seeds the session random source. Planning and running use
// separate sources with the same seed so -plan matches the session.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func fail(err error) {
	log.SetOutput(os.Stderr)
	werrors.Display(err)
	os.Exit(1)
}
