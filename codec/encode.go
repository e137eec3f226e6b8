package codec

import (
	"fmt"
	"strings"

	"github.com/hypebeast/go-osc/osc"

	"osc2midi/errs"
)

// Policy selects which address forms ToOSC emits.
type Policy int

const (
	// EmitBoth sends the legacy address followed by the detailed burst.
	EmitBoth Policy = iota
	// EmitLegacy sends only /ch{ch}<suffix>.
	EmitLegacy
	// EmitDetailed sends only /channel, /<data> and /value.
	EmitDetailed
)

func (p Policy) String() string {
	switch p {
	case EmitLegacy:
		return "legacy"
	case EmitDetailed:
		return "detailed"
	default:
		return "both"
	}
}

// ParsePolicy accepts "both", "legacy" or "detailed". Empty means EmitBoth.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return EmitBoth, nil
	case "legacy":
		return EmitLegacy, nil
	case "detailed":
		return EmitDetailed, nil
	}
	return EmitBoth, errs.Errorf(errs.InvalidConfig, "emit", "unknown emit policy %q", s)
}

// ToOSC serializes an event into the messages sent for it, in send order.
// Channels are 1-based on the OSC side. Unknown kinds produce nil.
func ToOSC(ev Event, p Policy) []*osc.Message {
	ch := int32(ev.Channel) + 1

	var legacy, field string
	var data, value int32
	switch ev.Kind {
	case NoteOn:
		legacy = fmt.Sprintf("/ch%dn%d", ch, ev.Number)
		field, data, value = "/note", int32(ev.Number), int32(ev.Value)
	case NoteOff:
		legacy = fmt.Sprintf("/ch%dn%d", ch, ev.Number)
		field, data, value = "/note", int32(ev.Number), 0
	case ControlChange:
		legacy = fmt.Sprintf("/ch%dcc%d", ch, ev.Number)
		field, data, value = "/cc", int32(ev.Number), int32(ev.Value)
	case Aftertouch:
		legacy = fmt.Sprintf("/ch%dpressure", ch)
		field, data, value = "/pressure", int32(ev.Value), int32(ev.Value)
	case PitchBend:
		legacy = fmt.Sprintf("/ch%dpitch", ch)
		field, data, value = "/pitch", int32(ev.Value), int32(ev.Value)
	default:
		return nil
	}

	msgs := make([]*osc.Message, 0, 4)
	if p != EmitDetailed {
		msgs = append(msgs, osc.NewMessage(legacy, value))
	}
	if p != EmitLegacy {
		msgs = append(msgs,
			osc.NewMessage("/channel", ch),
			osc.NewMessage(field, data),
			osc.NewMessage("/value", value),
		)
	}
	return msgs
}
