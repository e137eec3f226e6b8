// Package fakedrv is an in-memory gomidi driver for tests. Ports can be added,
// fed, unplugged and inspected without hardware or cgo.
package fakedrv

import (
	"sync"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var ErrUnplugged = errors.New("fakedrv: port unplugged")

type Driver struct {
	mu   sync.Mutex
	ins  []*In
	outs []*Out
}

func New() *Driver {
	return &Driver{}
}

func (d *Driver) AddIn(name string) *In {
	d.mu.Lock()
	defer d.mu.Unlock()
	in := &In{name: name, number: len(d.ins)}
	d.ins = append(d.ins, in)
	return in
}

func (d *Driver) AddOut(name string) *Out {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := &Out{name: name, number: len(d.outs)}
	d.outs = append(d.outs, out)
	return out
}

// Unplug removes every port called name from the listings and reports an
// error to any listener on it.
func (d *Driver) Unplug(name string) {
	d.mu.Lock()
	var lost []*In
	ins := d.ins[:0]
	for _, in := range d.ins {
		if in.name == name {
			lost = append(lost, in)
			continue
		}
		ins = append(ins, in)
	}
	d.ins = ins
	outs := d.outs[:0]
	for _, out := range d.outs {
		if out.name != name {
			outs = append(outs, out)
		}
	}
	d.outs = outs
	d.mu.Unlock()

	for _, in := range lost {
		in.fail(ErrUnplugged)
	}
}

// RemoveIn drops the input called name from the listings without notifying
// its listener, as when the OS stops reporting a port.
func (d *Driver) RemoveIn(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ins := d.ins[:0]
	for _, in := range d.ins {
		if in.name != name {
			ins = append(ins, in)
		}
	}
	d.ins = ins
}

func (d *Driver) Ins() ([]drivers.In, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ins := make([]drivers.In, len(d.ins))
	for i, in := range d.ins {
		ins[i] = in
	}
	return ins, nil
}

func (d *Driver) Outs() ([]drivers.Out, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	outs := make([]drivers.Out, len(d.outs))
	for i, out := range d.outs {
		outs[i] = out
	}
	return outs, nil
}

func (d *Driver) String() string { return "fakedrv" }

func (d *Driver) Close() error { return nil }

// In is a fake input port.
type In struct {
	name   string
	number int

	mu       sync.Mutex
	open     bool
	listener func([]byte, int32)
	onErr    func(error)

	// OpenErr, when set, is returned by Open.
	OpenErr error
}

func (i *In) Open() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.OpenErr != nil {
		return i.OpenErr
	}
	i.open = true
	return nil
}

func (i *In) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.open = false
	i.listener = nil
	return nil
}

func (i *In) IsOpen() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.open
}

func (i *In) Number() int             { return i.number }
func (i *In) String() string          { return i.name }
func (i *In) Underlying() interface{} { return nil }

func (i *In) Listen(onMsg func(msg []byte, milliseconds int32), config drivers.ListenConfig) (func(), error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.open {
		return nil, errors.Errorf("fakedrv: port %s is not open", i.name)
	}
	i.listener = onMsg
	i.onErr = config.OnErr
	return func() {
		i.mu.Lock()
		i.listener = nil
		i.mu.Unlock()
	}, nil
}

// Listening reports whether a listener is attached.
func (i *In) Listening() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.listener != nil
}

// Feed delivers raw MIDI bytes to the listener, if any.
func (i *In) Feed(msg []byte) {
	i.mu.Lock()
	l := i.listener
	i.mu.Unlock()
	if l != nil {
		l(msg, 0)
	}
}

func (i *In) fail(err error) {
	i.mu.Lock()
	onErr := i.onErr
	i.mu.Unlock()
	if onErr != nil {
		onErr(err)
	}
}

// Out is a fake output port that records what it is sent.
type Out struct {
	name   string
	number int

	mu   sync.Mutex
	open bool
	sent [][]byte

	// OpenErr and SendErr, when set, are returned by Open and Send.
	OpenErr error
	SendErr error
}

func (o *Out) Open() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.OpenErr != nil {
		return o.OpenErr
	}
	o.open = true
	return nil
}

func (o *Out) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open = false
	return nil
}

func (o *Out) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

func (o *Out) Number() int             { return o.number }
func (o *Out) String() string          { return o.name }
func (o *Out) Underlying() interface{} { return nil }

func (o *Out) Send(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.SendErr != nil {
		return o.SendErr
	}
	if !o.open {
		return errors.Errorf("fakedrv: port %s is not open", o.name)
	}
	o.sent = append(o.sent, append([]byte(nil), data...))
	return nil
}

// Sent returns a copy of everything sent so far.
func (o *Out) Sent() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	sent := make([][]byte, len(o.sent))
	copy(sent, o.sent)
	return sent
}
