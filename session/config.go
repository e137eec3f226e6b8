package session

import (
	"net"
	"strings"

	"osc2midi/codec"
	"osc2midi/errs"
)

// Config is the immutable snapshot a session is started from.
type Config struct {
	// ListenAddr is the IP the OSC socket binds to. Empty binds all
	// interfaces.
	ListenAddr string
	ListenPort int

	TargetIP   string
	TargetPort int

	MIDIIn  string
	MIDIOut string

	Emit codec.Policy
}

// ListenHost returns the host part used for binding.
func (c Config) ListenHost() string {
	if c.ListenAddr == "" {
		return "0.0.0.0"
	}
	return c.ListenAddr
}

// Validate checks completeness. It does not touch the network or devices.
func (c Config) Validate() error {
	const op = "validate config"
	switch {
	case strings.TrimSpace(c.MIDIIn) == "":
		return errs.Errorf(errs.InvalidConfig, op, "no MIDI input device selected")
	case strings.TrimSpace(c.MIDIOut) == "":
		return errs.Errorf(errs.InvalidConfig, op, "no MIDI output device selected")
	case !validPort(c.ListenPort):
		return errs.Errorf(errs.InvalidConfig, op, "OSC listen port %d outside 1-65535", c.ListenPort)
	case !validPort(c.TargetPort):
		return errs.Errorf(errs.InvalidConfig, op, "OSC target port %d outside 1-65535", c.TargetPort)
	case strings.TrimSpace(c.TargetIP) == "":
		return errs.Errorf(errs.InvalidConfig, op, "no OSC target IP")
	case c.ListenAddr != "" && net.ParseIP(c.ListenAddr) == nil:
		return errs.Errorf(errs.InvalidConfig, op, "OSC listen address %q is not an IP", c.ListenAddr)
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
