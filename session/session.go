package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"osc2midi/midi"
	"osc2midi/oscnet"
)

// Session is one running bridge: both device handles, both sockets and the
// goroutines pumping between them.
type Session struct {
	cfg   Config
	ports *midi.Ports
	watch time.Duration
	log   logrus.FieldLogger

	midiOut *midi.Sink
	midiIn  *midi.Input
	oscOut  *oscnet.Sink
	oscIn   *oscnet.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// Config returns the configuration the session was started with.
func (s *Session) Config() Config {
	return s.cfg
}

// ListenAddr returns the bound OSC address.
func (s *Session) ListenAddr() string {
	return s.oscIn.Addr().String()
}

// Done is closed once the session has fully stopped, whether by Stop or by
// a fatal error.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the session, or nil if it was stopped
// normally or is still running.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) start() {
	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.pumpOSC()
	}()
	go func() {
		defer s.wg.Done()
		s.pumpMIDI()
	}()
	go func() {
		defer s.wg.Done()
		midi.Watch(s.ctx, s.ports, s.cfg.MIDIIn, s.cfg.MIDIOut, s.watch, s.log, s.midiIn.Fail)
	}()
}

// fail records err as the reason the session ended and tears it down.
// It is called from the pumps, so teardown runs on its own goroutine.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()

	s.log.WithError(err).Error("session failed")
	go s.Stop()
}

// Stop ends both pumps and releases every handle. It is safe to call more
// than once and from any goroutine; it returns once teardown is complete.
func (s *Session) Stop() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.stopOnce.Do(func() {
		s.cancel()
		keep(s.oscIn.Close())
		keep(s.midiIn.Close())
		s.wg.Wait()

		keep(s.midiOut.Close())
		keep(s.oscOut.Close())

		s.log.Info("session stopped")
		close(s.done)
	})
	<-s.done
	return firstErr
}
