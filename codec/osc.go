package codec

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hypebeast/go-osc/osc"

	"osc2midi/errs"
)

var (
	channelPrefix = regexp.MustCompile(`^/ch(\d+)`)
	ccSuffix      = regexp.MustCompile(`cc(\d+)`)
	noteSuffix    = regexp.MustCompile(`n(\d+)`)
)

// FromOSC translates an OSC message addressed /ch<N><suffix> into a MIDI
// event. Suffixes are tried in order: cc<D>, n<D>, pressure, pitch.
//
// Addresses without the /ch<N> prefix or without a known suffix report
// ok=false and a nil error. A recognized address with an argument that is not
// an integer is a MalformedArgument error; a channel outside 1-16 or a note or
// controller above 127 is a MalformedAddress error.
func FromOSC(msg *osc.Message) (ev Event, ok bool, err error) {
	if msg == nil {
		return Event{}, false, nil
	}
	addr := msg.Address

	m := channelPrefix.FindStringSubmatch(addr)
	if m == nil {
		return Event{}, false, nil
	}
	suffix := addr[len(m[0]):]

	var kind Kind
	var number int
	switch {
	case ccSuffix.MatchString(suffix):
		kind = ControlChange
		number, err = dataNumber(addr, ccSuffix.FindStringSubmatch(suffix)[1])
	case noteSuffix.MatchString(suffix):
		kind = NoteOn
		number, err = dataNumber(addr, noteSuffix.FindStringSubmatch(suffix)[1])
	case strings.Contains(suffix, "pressure"):
		kind = Aftertouch
	case strings.Contains(suffix, "pitch"):
		kind = PitchBend
	default:
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, err
	}

	n, perr := strconv.Atoi(m[1])
	if perr != nil || n < 1 || n > NumChannels {
		return Event{}, false, errs.Errorf(errs.MalformedAddress, addr, "channel %s outside 1-%d", m[1], NumChannels)
	}
	channel := uint8(n - 1)

	if len(msg.Arguments) == 0 {
		return Event{}, false, errs.Errorf(errs.MalformedArgument, addr, "missing argument")
	}

	switch kind {
	case PitchBend:
		v, err := intArg(addr, msg.Arguments[0], MinPitchBend, MaxPitchBend)
		if err != nil {
			return Event{}, false, err
		}
		return PitchBendEvent(channel, int16(v)), true, nil
	}

	v, err := intArg(addr, msg.Arguments[0], 0, MaxData)
	if err != nil {
		return Event{}, false, err
	}
	value := uint8(v)

	switch kind {
	case ControlChange:
		return ControlChangeEvent(channel, uint8(number), value), true, nil
	case Aftertouch:
		return AftertouchEvent(channel, value), true, nil
	}
	if value == 0 {
		return NoteOffEvent(channel, uint8(number), 0), true, nil
	}
	return NoteOnEvent(channel, uint8(number), value), true, nil
}

func dataNumber(addr, digits string) (int, error) {
	n, err := strconv.Atoi(digits)
	if err != nil || n > MaxData {
		return 0, errs.Errorf(errs.MalformedAddress, addr, "data number %s outside 0-%d", digits, MaxData)
	}
	return n, nil
}

// intArg coerces an OSC argument to an integer clamped to [lo, hi].
// Floats truncate toward zero; numeric strings and booleans are accepted.
func intArg(addr string, arg any, lo, hi int) (int, error) {
	switch v := arg.(type) {
	case int32:
		return Clamp(int(v), lo, hi), nil
	case int64:
		return int(clamp64(v, int64(lo), int64(hi))), nil
	case float32:
		return floatArg(addr, float64(v), lo, hi)
	case float64:
		return floatArg(addr, v, lo, hi)
	case bool:
		if v {
			return Clamp(1, lo, hi), nil
		}
		return Clamp(0, lo, hi), nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return int(clamp64(n, int64(lo), int64(hi))), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatArg(addr, f, lo, hi)
		}
		return 0, errs.Errorf(errs.MalformedArgument, addr, "argument %q is not numeric", v)
	}
	return 0, errs.Errorf(errs.MalformedArgument, addr, "argument of type %T is not numeric", arg)
}

func floatArg(addr string, f float64, lo, hi int) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errs.Errorf(errs.MalformedArgument, addr, "argument %v is not finite", f)
	}
	f = math.Trunc(f)
	if f < float64(lo) {
		return lo, nil
	}
	if f > float64(hi) {
		return hi, nil
	}
	return int(f), nil
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
