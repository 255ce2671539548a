package hubctl

import (
	"fmt"
	"time"

	"github.com/google/gousb"
	"github.com/sirupsen/logrus"

	"github.com/herlein/hubreset/pkg/usbhost"
)

// SweepPolicy decides what a power pass does after a failed transfer.
// Open failures always move on to the next hub.
type SweepPolicy int

const (
	// StopOnTransferError skips the rest of the pass after the first
	// failed transfer
	StopOnTransferError SweepPolicy = iota

	// BestEffort attempts every hub in the pass regardless of failures
	BestEffort
)

var policyNames = map[SweepPolicy]string{
	StopOnTransferError: "stop-on-error",
	BestEffort:          "best-effort",
}

func (p SweepPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("SweepPolicy(%d)", int(p))
}

// ParsePolicy converts a policy name as printed by String
func ParsePolicy(name string) (SweepPolicy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Result reports what a Cycle achieved
type Result struct {
	Hubs       int
	PoweredOff int
	PoweredOn  int
	Errors     []error
}

// Complete reports whether every hub was switched off and back on
func (r Result) Complete() bool {
	return r.Hubs > 0 && r.PoweredOff == r.Hubs && r.PoweredOn == r.Hubs
}

// Cycler switches a downstream port off and on across a set of hubs
type Cycler struct {
	Host   usbhost.Host
	Settle time.Duration
	Policy SweepPolicy

	// Log defaults to logrus.StandardLogger()
	Log logrus.FieldLogger

	// Sleep waits out the settle delay. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Cycle powers port off on every hub, waits, then powers it back on.
// The on pass runs even when the off pass failed. Nothing is rolled back.
func (c *Cycler) Cycle(port int, hubs []*gousb.DeviceDesc) Result {
	res := Result{Hubs: len(hubs)}

	off, errs := c.sweep(port, hubs, RequestClearFeature)
	res.PoweredOff = off
	res.Errors = append(res.Errors, errs...)

	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(c.Settle)

	on, errs := c.sweep(port, hubs, RequestSetFeature)
	res.PoweredOn = on
	res.Errors = append(res.Errors, errs...)

	return res
}

// sweep issues request for port on each hub in turn and returns how many
// hubs accepted it
func (c *Cycler) sweep(port int, hubs []*gousb.DeviceDesc, request uint8) (int, []error) {
	state := "OFF"
	if request == RequestSetFeature {
		state = "ON"
	}

	logger := c.Log
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var (
		done int
		errs []error
	)
	for _, hub := range hubs {
		log := logger.WithFields(logrus.Fields{"hub": usbhost.Describe(hub), "port": port})

		h, err := c.Host.Open(hub)
		if err != nil {
			log.WithError(err).Error("Failed to open hub - permissions?")
			errs = append(errs, err)
			continue
		}

		_, err = h.Control(RequestTypePortOut, request, PortFeatPower, uint16(port), nil)
		h.Close()
		if err != nil {
			err = fmt.Errorf("switching port %d %s on %s: %w", port, state, usbhost.Describe(hub), err)
			log.WithError(err).Errorf("Failed to switch port %s", state)
			errs = append(errs, err)
			if c.Policy == StopOnTransferError {
				break
			}
			continue
		}

		log.Debugf("Port %d switched %s", port, state)
		done++
	}
	return done, errs
}
