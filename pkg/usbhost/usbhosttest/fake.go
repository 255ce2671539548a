// Package usbhosttest provides an in-memory usbhost.Host for tests.
//
// Fake devices answer hub descriptor and BOS requests from canned bytes and
// record every port power transfer in the host's log.
package usbhosttest

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gousb"

	"github.com/herlein/hubreset/pkg/usbhost"
)

// ErrStall is returned for requests a fake device does not answer
var ErrStall = errors.New("fake: pipe stall")

// Request types and codes understood by the fake
const (
	reqTypeStandardIn = 0x80
	reqTypeHubIn      = 0xA0
	reqTypePortOut    = 0x23
	reqGetDescriptor  = 0x06
	descTypeBOS       = 0x0F
)

// Device is one fake attached device
type Device struct {
	Desc *gousb.DeviceDesc

	// HubDesc is returned for hub descriptor requests. nil stalls.
	HubDesc []byte
	// BOS is returned for BOS requests. nil stalls.
	BOS []byte
	// BOSFailures is the number of BOS requests that stall before BOS is
	// returned
	BOSFailures int

	OpenErr error
	// PowerErr fails port power transfers
	PowerErr error

	// Hub descriptor types requested, in order
	HubDescTypes []uint8
	// BOSRequests counts BOS control transfers
	BOSRequests int
}

// Transfer is a recorded port power request
type Transfer struct {
	Bus     int
	Address int
	Request uint8
	Value   uint16
	Index   uint16
}

func (t Transfer) String() string {
	return fmt.Sprintf("%d.%d req=%d val=%d port=%d", t.Bus, t.Address, t.Request, t.Value, t.Index)
}

// Host is a fake usbhost.Host
type Host struct {
	Attached []*Device
	// EnumErr is returned alongside the device list
	EnumErr error

	Transfers []Transfer
	Opens     int
	Closes    int
}

// NewHost returns a Host with devs attached
func NewHost(devs ...*Device) *Host {
	return &Host{Attached: devs}
}

// Devices implements usbhost.Host
func (h *Host) Devices() ([]*gousb.DeviceDesc, error) {
	descs := make([]*gousb.DeviceDesc, 0, len(h.Attached))
	for _, d := range h.Attached {
		descs = append(descs, d.Desc)
	}
	return descs, h.EnumErr
}

// Open implements usbhost.Host
func (h *Host) Open(desc *gousb.DeviceDesc) (usbhost.Handle, error) {
	for _, d := range h.Attached {
		if !usbhost.SameDevice(d.Desc, desc) {
			continue
		}
		if d.OpenErr != nil {
			return nil, fmt.Errorf("%w: %v", usbhost.ErrOpen, d.OpenErr)
		}
		h.Opens++
		return &handle{host: h, dev: d}, nil
	}
	return nil, usbhost.ErrNotFound
}

// PowerTransfers returns the recorded transfers for the device at bus.addr
func (h *Host) PowerTransfers(bus, addr int) []Transfer {
	var out []Transfer
	for _, t := range h.Transfers {
		if t.Bus == bus && t.Address == addr {
			out = append(out, t)
		}
	}
	return out
}

type handle struct {
	host   *Host
	dev    *Device
	closed bool
}

func (h *handle) Control(rType, request uint8, val, idx uint16, data []byte) (int, error) {
	if h.closed {
		return 0, errors.New("fake: control on closed handle")
	}
	switch {
	case rType == reqTypeHubIn && request == reqGetDescriptor:
		h.dev.HubDescTypes = append(h.dev.HubDescTypes, uint8(val>>8))
		if h.dev.HubDesc == nil {
			return 0, ErrStall
		}
		return copy(data, h.dev.HubDesc), nil

	case rType == reqTypeStandardIn && request == reqGetDescriptor && val>>8 == descTypeBOS:
		h.dev.BOSRequests++
		if h.dev.BOSFailures > 0 {
			h.dev.BOSFailures--
			return 0, ErrStall
		}
		if h.dev.BOS == nil {
			return 0, ErrStall
		}
		return copy(data, h.dev.BOS), nil

	case rType == reqTypePortOut:
		h.host.Transfers = append(h.host.Transfers, Transfer{
			Bus:     h.dev.Desc.Bus,
			Address: h.dev.Desc.Address,
			Request: request,
			Value:   val,
			Index:   idx,
		})
		if h.dev.PowerErr != nil {
			return 0, h.dev.PowerErr
		}
		return 0, nil
	}
	return 0, ErrStall
}

func (h *handle) Close() error {
	if !h.closed {
		h.closed = true
		h.host.Closes++
	}
	return nil
}

// HubDescriptor builds a hub descriptor for a hub with ports ports. The
// SuperSpeed form is 12 bytes, the USB2 form 9 bytes.
func HubDescriptor(ports int, superSpeed bool) []byte {
	if superSpeed {
		return []byte{12, 0x2A, byte(ports), 0, 0, 0, 0, 0, 0, 0, 0, 0}
	}
	return []byte{9, 0x29, byte(ports), 0, 0, 0, 0, 0, 0xff}
}

// BOSWithContainerID builds a BOS descriptor holding a USB 2.0 extension
// capability followed by a Container ID capability
func BOSWithContainerID(id [16]byte) []byte {
	usb2ext := []byte{7, 0x10, 0x02, 0x02, 0, 0, 0}
	cid := append([]byte{20, 0x10, 0x04, 0}, id[:]...)
	return bos(usb2ext, cid)
}

// BOSWithoutContainerID builds a BOS descriptor with only a USB 2.0
// extension capability
func BOSWithoutContainerID() []byte {
	return bos([]byte{7, 0x10, 0x02, 0x02, 0, 0, 0})
}

func bos(caps ...[]byte) []byte {
	out := []byte{5, descTypeBOS, 0, 0, byte(len(caps))}
	for _, c := range caps {
		out = append(out, c...)
	}
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(out)))
	return out
}

// Hub returns a fake hub with spec release spec, ports ports and an
// optional container ID (nil for none)
func Hub(bus, addr int, path []int, vid, pid gousb.ID, spec gousb.BCD, ports int, cid *[16]byte) *Device {
	d := &Device{
		Desc:    desc(bus, addr, path, vid, pid, spec, gousb.ClassHub),
		HubDesc: HubDescriptor(ports, spec >= gousb.Version(3, 0)),
	}
	if cid != nil {
		d.BOS = BOSWithContainerID(*cid)
	} else {
		d.BOS = BOSWithoutContainerID()
	}
	return d
}

// Peripheral returns a fake non-hub device
func Peripheral(bus, addr int, path []int, vid, pid gousb.ID) *Device {
	return &Device{Desc: desc(bus, addr, path, vid, pid, gousb.Version(2, 0), gousb.ClassPerInterface)}
}

func desc(bus, addr int, path []int, vid, pid gousb.ID, spec gousb.BCD, class gousb.Class) *gousb.DeviceDesc {
	port := 0
	if len(path) > 0 {
		port = path[len(path)-1]
	}
	return &gousb.DeviceDesc{
		Bus:     bus,
		Address: addr,
		Port:    port,
		Path:    path,
		Spec:    spec,
		Class:   class,
		Vendor:  vid,
		Product: pid,
	}
}
