// Package cycle runs one reset pass: find every attached target device and
// power cycle the hub port it hangs off.
package cycle

import (
	"github.com/google/gousb"
	"github.com/google/gousb/usbid"
	"github.com/sirupsen/logrus"

	"github.com/herlein/hubreset/pkg/config"
	"github.com/herlein/hubreset/pkg/hubctl"
	"github.com/herlein/hubreset/pkg/usbhost"
)

// Summary counts the outcome of a Run
type Summary struct {
	Targets int // target devices found
	Cycled  int // targets whose ports were switched off and on everywhere
	Failed  int // targets that could not be fully power cycled
}

// Runner ties enumeration, hub lookup and power cycling together
type Runner struct {
	Host   usbhost.Host
	Config *config.Config
	Log    logrus.FieldLogger
	Hubs   *hubctl.Resolver
	Cycler *hubctl.Cycler
}

// NewRunner returns a Runner whose Resolver and Cycler are configured from cfg
func NewRunner(host usbhost.Host, cfg *config.Config, log logrus.FieldLogger) *Runner {
	return &Runner{
		Host:   host,
		Config: cfg,
		Log:    log,
		Hubs:   &hubctl.Resolver{
			Host:               host,
			Quirks:             hubctl.DefaultQuirks,
			RequireContainerID: cfg.RequireContainerID,
			Log:                log,
		},
		Cycler: &hubctl.Cycler{
			Host:   host,
			Settle: cfg.SettleDelay,
			Policy: cfg.SweepPolicy(),
			Log:    log,
		},
	}
}

// IsTarget reports whether desc is the configured peripheral
func (r *Runner) IsTarget(desc *gousb.DeviceDesc) bool {
	return desc.Vendor == r.Config.VendorID && desc.Product == r.Config.ProductID
}

// Run makes one pass over the attached devices. Every failure is logged and
// counted. None of them stops the pass.
func (r *Runner) Run() Summary {
	var sum Summary

	snapshot, err := r.Host.Devices()
	if err != nil {
		r.Log.WithError(err).Error("Couldn't get device descriptor for some USB devices")
	}

	for _, desc := range snapshot {
		if !r.IsTarget(desc) {
			r.Log.WithField("device", usbhost.Describe(desc)).Trace("Skipping non-target device")
			continue
		}
		sum.Targets++
		if r.reset(snapshot, desc) {
			sum.Cycled++
		} else {
			sum.Failed++
		}
	}
	return sum
}

// reset power cycles a single target. It returns true when every hub in the
// virtual hub set switched the port off and back on.
func (r *Runner) reset(snapshot []*gousb.DeviceDesc, target *gousb.DeviceDesc) bool {
	r.Log.Infof("Found %s (%s) at bus: %d, port: %d",
		usbhost.VendorProduct(target), usbid.Describe(target), target.Bus, target.Port)

	hub := usbhost.Parent(snapshot, target)
	if hub == nil {
		r.Log.Errorf("Failed to get hub for %s - won't be able to power cycle.", usbhost.Describe(target))
		return false
	}
	if hub.Class != gousb.ClassHub {
		r.Log.Warnf("Parent %s of %s isn't classified as a hub! Perhaps the hub is buggy?!",
			usbhost.Describe(hub), usbhost.VendorProduct(target))
	} else {
		r.Log.Infof("Found parent hub %s (%s)", usbhost.Describe(hub), usbid.Describe(hub))
	}

	hubs := r.Hubs.VirtualHubs(hub)
	res := r.Cycler.Cycle(target.Port, hubs)
	if !res.Complete() {
		r.Log.Errorf("Failed to reset USB device %s at bus: %d, port: %d (%d/%d hubs off, %d/%d on)",
			usbhost.VendorProduct(target), target.Bus, target.Port,
			res.PoweredOff, res.Hubs, res.PoweredOn, res.Hubs)
		return false
	}
	r.Log.Infof("Power cycled %s on %d hub(s)", usbhost.Describe(target), res.Hubs)
	return true
}
