package midi

import (
	"sync"

	"github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"osc2midi/codec"
	"osc2midi/errs"
)

// Sink is the single open MIDI output. Sends are serialized.
type Sink struct {
	mu     sync.Mutex
	port   drivers.Out
	send   func(msg gomidi.Message) error
	closed bool
	log    logrus.FieldLogger
}

// OpenSink opens port for writing.
func OpenSink(port drivers.Out, log logrus.FieldLogger) (*Sink, error) {
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, errs.E(errs.DeviceOpenError, "open MIDI output "+port.String(), err)
	}
	return &Sink{
		port: port,
		send: send,
		log:  log.WithField("component", "midi-out"),
	}, nil
}

// Name returns the port name.
func (s *Sink) Name() string {
	return s.port.String()
}

// Send writes ev. A failure is returned as a TransportError and the event is
// lost.
func (s *Sink) Send(ev codec.Event) error {
	msg := ev.Message()
	if msg == nil {
		return errs.Errorf(errs.TransportError, "send MIDI", "cannot encode %v", ev)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.Errorf(errs.TransportError, "send MIDI", "output %s is closed", s.port.String())
	}
	if err := s.send(msg); err != nil {
		return errs.E(errs.TransportError, "send MIDI", err)
	}
	return nil
}

// Close closes the port. Further sends fail.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.port.Close(); err != nil {
		s.log.WithError(err).Warn("close MIDI output")
		return err
	}
	return nil
}
