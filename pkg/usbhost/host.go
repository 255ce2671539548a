// Package usbhost is the boundary between the hub logic and libusb.
//
// Everything above this package sees devices as *gousb.DeviceDesc snapshots
// and talks to them through short-lived Handles.
package usbhost

import (
	"fmt"
	"io"
	"time"

	"github.com/google/gousb"
	"github.com/sirupsen/logrus"
)

// Handle is an open device that accepts control transfers.
// *gousb.Device satisfies it.
type Handle interface {
	Control(rType, request uint8, val, idx uint16, data []byte) (int, error)
	Close() error
}

// Host lists attached devices and opens them
type Host interface {
	// Devices returns a snapshot of all attached devices. A non-nil error
	// may accompany a partial list when some descriptors could not be read.
	Devices() ([]*gousb.DeviceDesc, error)

	// Open opens the device described by desc for control transfers.
	Open(desc *gousb.DeviceDesc) (Handle, error)
}

// GoUSBHost implements Host on top of a gousb context
type GoUSBHost struct {
	ctx     *gousb.Context
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewGoUSBHost wraps ctx. Every handle returned by Open uses timeout for
// its control transfers.
func NewGoUSBHost(ctx *gousb.Context, timeout time.Duration, log logrus.FieldLogger) *GoUSBHost {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GoUSBHost{ctx: ctx, timeout: timeout, log: log}
}

// Devices enumerates without opening anything
func (h *GoUSBHost) Devices() ([]*gousb.DeviceDesc, error) {
	var descs []*gousb.DeviceDesc
	_, err := h.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		descs = append(descs, desc)
		return false
	})
	if err != nil {
		return descs, fmt.Errorf("failed to read some device descriptors: %w", err)
	}
	return descs, nil
}

// Open opens the device at desc's bus and address
func (h *GoUSBHost) Open(desc *gousb.DeviceDesc) (Handle, error) {
	devs, listErr := h.ctx.OpenDevices(func(d *gousb.DeviceDesc) bool {
		return SameDevice(d, desc)
	})
	dev, err := pickOpened(devs, listErr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Describe(desc), err)
	}
	if listErr != nil {
		h.log.WithError(listErr).Debugf("Ignoring enumeration error while opening %s", Describe(desc))
	}
	dev.ControlTimeout = h.timeout
	return dev, nil
}

// pickOpened chooses the device to keep from an OpenDevices result.
//
// OpenDevices reports the last error seen on any device in the system,
// including devices the opener never selected. That error only fails the
// open when nothing was opened; otherwise it belongs to some other device
// and is dropped. Devices beyond the first are closed.
func pickOpened[D io.Closer](devs []D, err error) (D, error) {
	var none D
	if len(devs) == 0 {
		if err != nil {
			return none, fmt.Errorf("%w: %v", ErrOpen, err)
		}
		return none, ErrNotFound
	}
	for _, d := range devs[1:] {
		d.Close()
	}
	return devs[0], nil
}
