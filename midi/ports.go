package midi

import (
	"time"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/drivers"

	"osc2midi/errs"
)

// ScanTimeout bounds a port enumeration. CoreMIDI can hang while listing.
var ScanTimeout = 3 * time.Second

var errScanTimeout = errors.New("MIDI port enumeration timed out (CoreMIDI hung? try: sudo killall coreaudiod midiserver)")

// Ports looks up named ports on a single driver.
type Ports struct {
	drv drivers.Driver
}

// NewPorts wraps drv. A nil drv uses the registered default driver.
func NewPorts(drv drivers.Driver) *Ports {
	return &Ports{drv: drv}
}

func (p *Ports) driver() (drivers.Driver, error) {
	if p.drv != nil {
		return p.drv, nil
	}
	drv := drivers.Get()
	if drv == nil {
		return nil, errors.New("no MIDI driver registered")
	}
	return drv, nil
}

type scanResult struct {
	ins  []drivers.In
	outs []drivers.Out
	err  error
}

// scan lists ports with a timeout.
func (p *Ports) scan() ([]drivers.In, []drivers.Out, error) {
	drv, err := p.driver()
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan scanResult, 1)
	go func() {
		ins, err := drv.Ins()
		if err != nil {
			ch <- scanResult{err: errors.Wrap(err, "list MIDI inputs")}
			return
		}
		outs, err := drv.Outs()
		if err != nil {
			ch <- scanResult{err: errors.Wrap(err, "list MIDI outputs")}
			return
		}
		ch <- scanResult{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs, r.err
	case <-time.After(ScanTimeout):
		return nil, nil, errScanTimeout
	}
}

// InNames lists input port names.
func (p *Ports) InNames() ([]string, error) {
	ins, _, err := p.scan()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// OutNames lists output port names.
func (p *Ports) OutNames() ([]string, error) {
	_, outs, err := p.scan()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

// In finds the input port called name. Failure is a DeviceOpenError.
func (p *Ports) In(name string) (drivers.In, error) {
	ins, _, err := p.scan()
	if err != nil {
		return nil, errs.E(errs.DeviceOpenError, "find MIDI input", err)
	}
	for _, in := range ins {
		if in.String() == name {
			return in, nil
		}
	}
	return nil, errs.Errorf(errs.DeviceOpenError, "find MIDI input", "no input port named %q", name)
}

// Out finds the output port called name. Failure is a DeviceOpenError.
func (p *Ports) Out(name string) (drivers.Out, error) {
	_, outs, err := p.scan()
	if err != nil {
		return nil, errs.E(errs.DeviceOpenError, "find MIDI output", err)
	}
	for _, out := range outs {
		if out.String() == name {
			return out, nil
		}
	}
	return nil, errs.Errorf(errs.DeviceOpenError, "find MIDI output", "no output port named %q", name)
}

// present reports whether the input port in and the output port out are
// listed. An empty name counts as present.
func (p *Ports) present(in, out string) (inOK, outOK bool, err error) {
	ins, outs, err := p.scan()
	if err != nil {
		return false, false, err
	}
	inOK, outOK = in == "", out == ""
	for _, port := range ins {
		if port.String() == in {
			inOK = true
		}
	}
	for _, port := range outs {
		if port.String() == out {
			outOK = true
		}
	}
	return inOK, outOK, nil
}
