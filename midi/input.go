package midi

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"osc2midi/codec"
	"osc2midi/errs"
)

// InputBuffer is how many decoded events may wait for Receive before the
// driver callback starts dropping them.
const InputBuffer = 256

// ErrClosed is returned by Receive after Close.
var ErrClosed = errors.New("MIDI input closed")

// Input turns the driver's callback delivery into a blocking pull.
type Input struct {
	port drivers.In
	stop func()

	events chan codec.Event

	lost     chan struct{}
	lostOnce sync.Once
	lostErr  error

	closed    chan struct{}
	closeOnce sync.Once

	log logrus.FieldLogger
}

// OpenInput opens port and starts buffering its channel voice messages.
func OpenInput(port drivers.In, log logrus.FieldLogger) (*Input, error) {
	in := &Input{
		port:   port,
		events: make(chan codec.Event, InputBuffer),
		lost:   make(chan struct{}),
		closed: make(chan struct{}),
		log:    log.WithField("component", "midi-in"),
	}

	stop, err := gomidi.ListenTo(port, in.receive, gomidi.HandleError(func(err error) {
		in.Fail(err)
	}))
	if err != nil {
		return nil, errs.E(errs.DeviceOpenError, "open MIDI input "+port.String(), err)
	}
	in.stop = stop
	return in, nil
}

// Name returns the port name.
func (in *Input) Name() string {
	return in.port.String()
}

func (in *Input) receive(msg gomidi.Message, timestampms int32) {
	ev, ok := codec.FromMIDI(msg)
	if !ok {
		return
	}
	select {
	case <-in.closed:
	case in.events <- ev:
	default:
		in.log.WithField("event", ev.String()).Warn("input buffer full, event dropped")
	}
}

// Receive blocks until the next event, device loss, Close or ctx is done.
// Device loss is reported as a DeviceError.
func (in *Input) Receive(ctx context.Context) (codec.Event, error) {
	select {
	case ev := <-in.events:
		return ev, nil
	default:
	}

	select {
	case ev := <-in.events:
		return ev, nil
	case <-in.lost:
		return codec.Event{}, in.lostErr
	case <-in.closed:
		return codec.Event{}, ErrClosed
	case <-ctx.Done():
		return codec.Event{}, ctx.Err()
	}
}

// Fail marks the device as lost. Pending and future Receive calls return
// err wrapped as a DeviceError. Only the first call has an effect.
func (in *Input) Fail(err error) {
	in.lostOnce.Do(func() {
		if !errs.Is(err, errs.DeviceError) {
			err = errs.E(errs.DeviceError, "MIDI input "+in.port.String(), err)
		}
		in.lostErr = err
		close(in.lost)
	})
}

// Close stops listening and closes the port. It unblocks Receive.
func (in *Input) Close() error {
	var err error
	in.closeOnce.Do(func() {
		close(in.closed)
		if in.stop != nil {
			in.stop()
		}
		err = in.port.Close()
		if err != nil {
			in.log.WithError(err).Warn("close MIDI input")
		}
	})
	return err
}
