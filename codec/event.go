package codec

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind identifies the MIDI message an Event carries.
type Kind uint8

const (
	NoteOn Kind = iota + 1
	NoteOff
	ControlChange
	Aftertouch
	PitchBend
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	case ControlChange:
		return "control_change"
	case Aftertouch:
		return "aftertouch"
	case PitchBend:
		return "pitchwheel"
	default:
		return "unknown"
	}
}

// Value ranges.
const (
	MaxData      = 127
	MinPitchBend = -8192
	MaxPitchBend = 8191
	NumChannels  = 16
)

// Event is a channel voice message moving through the bridge.
//
// Number holds the note for note events and the controller for
// ControlChange. Value holds the velocity, controller value, pressure or
// signed pitch bend amount.
type Event struct {
	Kind    Kind
	Channel uint8 // 0-15
	Number  uint8
	Value   int16
}

func NoteOnEvent(channel, note, velocity uint8) Event {
	return Event{Kind: NoteOn, Channel: channel, Number: note, Value: int16(velocity)}
}

func NoteOffEvent(channel, note, velocity uint8) Event {
	return Event{Kind: NoteOff, Channel: channel, Number: note, Value: int16(velocity)}
}

func ControlChangeEvent(channel, controller, value uint8) Event {
	return Event{Kind: ControlChange, Channel: channel, Number: controller, Value: int16(value)}
}

func AftertouchEvent(channel, pressure uint8) Event {
	return Event{Kind: Aftertouch, Channel: channel, Value: int16(pressure)}
}

func PitchBendEvent(channel uint8, value int16) Event {
	return Event{Kind: PitchBend, Channel: channel, Value: value}
}

// String renders the event in the form written to the event log.
func (e Event) String() string {
	switch e.Kind {
	case NoteOn, NoteOff:
		return fmt.Sprintf("%s channel=%d note=%d velocity=%d", e.Kind, e.Channel, e.Number, e.Value)
	case ControlChange:
		return fmt.Sprintf("%s channel=%d control=%d value=%d", e.Kind, e.Channel, e.Number, e.Value)
	case Aftertouch:
		return fmt.Sprintf("%s channel=%d value=%d", e.Kind, e.Channel, e.Value)
	case PitchBend:
		return fmt.Sprintf("%s channel=%d pitch=%d", e.Kind, e.Channel, e.Value)
	}
	return fmt.Sprintf("unknown channel=%d", e.Channel)
}

// Message encodes the event as a MIDI wire message. Data bytes are masked to
// seven bits so a hand-built Event can never produce a status byte.
func (e Event) Message() gomidi.Message {
	ch := e.Channel & 0x0F
	switch e.Kind {
	case NoteOn:
		return gomidi.NoteOn(ch, e.Number&0x7F, uint8(Clamp(int(e.Value), 0, MaxData)))
	case NoteOff:
		return gomidi.NoteOffVelocity(ch, e.Number&0x7F, uint8(Clamp(int(e.Value), 0, MaxData)))
	case ControlChange:
		return gomidi.ControlChange(ch, e.Number&0x7F, uint8(Clamp(int(e.Value), 0, MaxData)))
	case Aftertouch:
		return gomidi.AfterTouch(ch, uint8(Clamp(int(e.Value), 0, MaxData)))
	case PitchBend:
		return gomidi.Pitchbend(ch, int16(Clamp(int(e.Value), MinPitchBend, MaxPitchBend)))
	}
	return nil
}

// FromMIDI decodes the channel voice messages the bridge forwards. Anything
// else (clock, sysex, program change, poly pressure) reports false.
// A NoteOn with velocity 0 is returned as NoteOff.
func FromMIDI(msg gomidi.Message) (Event, bool) {
	var channel, key, velocity, controller, value uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		if velocity == 0 {
			return NoteOffEvent(channel, key, 0), true
		}
		return NoteOnEvent(channel, key, velocity), true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return NoteOffEvent(channel, key, velocity), true
	case msg.GetControlChange(&channel, &controller, &value):
		return ControlChangeEvent(channel, controller, value), true
	case msg.GetAfterTouch(&channel, &value):
		return AftertouchEvent(channel, value), true
	case msg.GetPitchBend(&channel, &rel, &abs):
		return PitchBendEvent(channel, rel), true
	}
	return Event{}, false
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
