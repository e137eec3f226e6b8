package midi

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"osc2midi/errs"
)

// PollRate is the default interval between port scans in Watch.
const PollRate = time.Second

// Watch polls the port list until ctx is done and calls onLost once, with a
// DeviceError, when the input in or the output out disappears. Inputs and
// outputs are matched separately. Pass "" to watch only one direction. A
// scan that times out is skipped rather than treated as a loss.
func Watch(ctx context.Context, ports *Ports, in, out string, interval time.Duration, log logrus.FieldLogger, onLost func(error)) {
	if interval <= 0 {
		interval = PollRate
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		inOK, outOK, err := ports.present(in, out)
		switch {
		case err != nil:
			log.WithError(err).Debug("port scan skipped")
		case !inOK:
			onLost(errs.Errorf(errs.DeviceError, "watch MIDI ports", "input %q disconnected", in))
			return
		case !outOK:
			onLost(errs.Errorf(errs.DeviceError, "watch MIDI ports", "output %q disconnected", out))
			return
		}
	}
}
