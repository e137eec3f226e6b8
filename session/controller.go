package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2/drivers"

	"osc2midi/errs"
	"osc2midi/midi"
	"osc2midi/oscnet"
)

// Controller owns at most one running Session.
type Controller struct {
	ports *midi.Ports
	log   logrus.FieldLogger

	// WatchInterval is how often the MIDI port list is polled for unplugged
	// devices. Zero uses midi.PollRate.
	WatchInterval time.Duration

	mu     sync.Mutex
	active *Session
}

// NewController uses drv for MIDI; nil means the registered default driver.
func NewController(drv drivers.Driver, log logrus.FieldLogger) *Controller {
	return &Controller{
		ports: midi.NewPorts(drv),
		log:   log,
	}
}

// Ports exposes device enumeration for pickers.
func (c *Controller) Ports() *midi.Ports {
	return c.ports
}

// Active returns the running session, or nil.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.finished() {
		c.active = nil
	}
	return c.active
}

// Start validates cfg, opens the MIDI output, the MIDI input, the OSC client
// and the OSC socket in that order, then starts both pumps. If any step fails
// everything already opened is released and no session exists.
func (c *Controller) Start(cfg Config) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && !c.active.finished() {
		return nil, errs.Errorf(errs.SessionActive, "start session", "a session is already running")
	}
	c.active = nil

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := oscnet.CheckPort(cfg.ListenHost(), cfg.ListenPort); err != nil {
		return nil, err
	}

	s, err := c.open(cfg)
	if err != nil {
		return nil, err
	}
	s.start()
	c.active = s
	return s, nil
}

// Stop stops the running session, if any.
func (c *Controller) Stop() error {
	c.mu.Lock()
	s := c.active
	c.active = nil
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Stop()
}

func (c *Controller) open(cfg Config) (s *Session, err error) {
	log := c.log.WithField("component", "session")

	var undo []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(undo) - 1; i >= 0; i-- {
			if cerr := undo[i](); cerr != nil {
				log.WithError(cerr).Warn("release after failed start")
			}
		}
	}()

	outPort, err := c.ports.Out(cfg.MIDIOut)
	if err != nil {
		return nil, err
	}
	midiOut, err := midi.OpenSink(outPort, c.log)
	if err != nil {
		return nil, err
	}
	undo = append(undo, midiOut.Close)

	inPort, err := c.ports.In(cfg.MIDIIn)
	if err != nil {
		return nil, err
	}
	midiIn, err := midi.OpenInput(inPort, c.log)
	if err != nil {
		return nil, err
	}
	undo = append(undo, midiIn.Close)

	oscOut, err := oscnet.Dial(cfg.TargetIP, cfg.TargetPort, c.log)
	if err != nil {
		return nil, err
	}
	undo = append(undo, oscOut.Close)

	oscIn, err := oscnet.Listen(cfg.ListenHost(), cfg.ListenPort, c.log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s = &Session{
		cfg:     cfg,
		ports:   c.ports,
		watch:   c.WatchInterval,
		log:     log,
		midiOut: midiOut,
		midiIn:  midiIn,
		oscOut:  oscOut,
		oscIn:   oscIn,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	log.WithFields(logrus.Fields{
		"listen":   oscIn.Addr().String(),
		"target":   oscOut.Target(),
		"midi_in":  midiIn.Name(),
		"midi_out": midiOut.Name(),
		"emit":     cfg.Emit.String(),
	}).Info("session started")
	return s, nil
}
