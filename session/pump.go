package session

import (
	"github.com/hypebeast/go-osc/osc"
	"github.com/pkg/errors"

	"osc2midi/codec"
	"osc2midi/midi"
)

// pumpOSC runs the OSC inbound listener: datagram, codec, MIDI output.
func (s *Session) pumpOSC() {
	log := s.log.WithField("component", "osc-in")

	err := s.oscIn.Serve(func(msg *osc.Message) {
		ev, ok, err := codec.FromOSC(msg)
		if err != nil {
			log.WithError(err).Warn("dropped OSC message")
			return
		}
		if !ok {
			log.WithField("address", msg.Address).Debug("ignored OSC message")
			return
		}
		if err := s.midiOut.Send(ev); err != nil {
			log.WithError(err).Warn("dropped MIDI event")
			return
		}
		log.Infof("OUT: %s", ev)
	})
	if err != nil && s.ctx.Err() == nil {
		s.fail(err)
	}
}

// pumpMIDI runs the MIDI inbound listener: blocking receive, codec, OSC
// output. Device loss ends the session.
func (s *Session) pumpMIDI() {
	log := s.log.WithField("component", "midi-in")

	for {
		ev, err := s.midiIn.Receive(s.ctx)
		if err != nil {
			if errors.Is(err, midi.ErrClosed) || s.ctx.Err() != nil {
				return
			}
			s.fail(err)
			return
		}

		msgs := codec.ToOSC(ev, s.cfg.Emit)
		if len(msgs) == 0 {
			continue
		}
		if err := s.oscOut.Send(msgs...); err != nil {
			log.WithError(err).Warn("dropped OSC burst")
			continue
		}
		log.Infof("IN: %s %v", msgs[0].Address, msgs[0].Arguments[0])
	}
}
