package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"osc2midi/config"
	"osc2midi/debug"
	"osc2midi/session"
	"osc2midi/theme"
	"osc2midi/tui"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default ~/.config/osc2midi/config.json)")
		headless   = flag.Bool("headless", false, "run the saved session without the terminal UI")
		debugLog   = flag.Bool("debug", false, "write a debug log to ~/.config/osc2midi/debug.log")
		emit       = flag.String("emit", "", "MIDI to OSC form: both, legacy or detailed")
		listenIP   = flag.String("listen-ip", "", "IP to receive OSC on (default: discovered interface)")
		logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error")
	)
	flag.Parse()

	if err := run(*configPath, *headless, *debugLog, *emit, *listenIP, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, headless, debugLog bool, emit, listenIP, logLevel string) error {
	// Load config
	if configPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	if emit != "" {
		cfg.Emit = emit
	}
	if listenIP != "" {
		cfg.OSCInIP = listenIP
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.Debug = cfg.Debug || debugLog

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	if cfg.Debug {
		path, err := debug.DefaultPath()
		if err != nil {
			return err
		}
		hook, err := debug.Enable(path)
		if err != nil {
			return err
		}
		defer hook.Close()
		log.AddHook(hook)
	}

	save := func(c *config.Config) error { return c.SaveFile(configPath) }
	ctrl := session.NewController(nil, log)
	defer ctrl.Stop()

	if headless {
		return runHeadless(ctrl, cfg, save, log)
	}

	// Load theme
	palette, err := theme.LoadOrDefault(cfg.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	// The screen belongs to the TUI; entries reach the log pane through the hook.
	logs := tui.NewLogHook(256)
	log.AddHook(logs)
	log.SetOutput(io.Discard)

	m := tui.NewModel(ctrl, cfg, config.LocalIP(), th, logs.Lines(), log)
	m.Save = save
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, err = p.Run()
	return err
}

func runHeadless(ctrl *session.Controller, cfg *config.Config, save func(*config.Config) error, log *logrus.Logger) error {
	sc, err := cfg.SessionConfig(config.LocalIP())
	if err != nil {
		return err
	}
	s, err := ctrl.Start(sc)
	if err != nil {
		return err
	}
	cfg.Remember(sc)
	if err := save(cfg); err != nil {
		log.WithError(err).Warn("could not save config")
	}
	log.Infof("listening on %s, sending to %s:%d", s.ListenAddr(), sc.TargetIP, sc.TargetPort)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-sig:
		return s.Stop()
	case <-s.Done():
		return s.Err()
	}
}
