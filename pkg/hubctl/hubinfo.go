// Package hubctl queries USB hubs and switches their port power.
//
// A physical hub with USB2 and USB3 halves enumerates as two logical hubs.
// Both report the same Container ID in their BOS descriptor, which is how
// VirtualHubs ties them back together.
package hubctl

import (
	"encoding/hex"
	"fmt"

	"github.com/google/gousb"
	"github.com/google/uuid"

	"github.com/herlein/hubreset/pkg/usbhost"
)

// Info describes one logical hub
type Info struct {
	Desc        *gousb.DeviceDesc
	Ports       int
	ContainerID string // 32 lowercase hex characters, empty when unknown
	Vendor      string // "vvvv:pppp"
	Depth       int    // USB tier, 1 for a root hub
	Quirk       string // name of the quirk that supplied ContainerID
}

// String returns a one-line summary for logs
func (i *Info) String() string {
	cid := i.ContainerID
	if cid == "" {
		cid = "none"
	}
	return fmt.Sprintf("%s at %s, %d ports, tier %d, container %s",
		i.Vendor, usbhost.Location(i.Desc), i.Ports, i.Depth, cid)
}

// UUID returns the container ID as a UUID, or uuid.Nil when there is none
func (i *Info) UUID() uuid.UUID {
	b, err := hex.DecodeString(i.ContainerID)
	if err != nil {
		return uuid.Nil
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// HubDescriptorType returns the hub descriptor type a device with the given
// USB spec release answers to
func HubDescriptorType(spec gousb.BCD) uint8 {
	if spec >= SuperSpeedSpec {
		return DescTypeSuperSpeedHub
	}
	return DescTypeHub
}

// Resolve opens the hub described by desc and reads its port count and
// container ID. The quirk table is applied before returning.
func Resolve(host usbhost.Host, desc *gousb.DeviceDesc) (*Info, error) {
	return ResolveWithQuirks(host, desc, DefaultQuirks)
}

// ResolveWithQuirks is Resolve with an explicit quirk table
func ResolveWithQuirks(host usbhost.Host, desc *gousb.DeviceDesc, quirks []Quirk) (*Info, error) {
	h, err := host.Open(desc)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	ports, err := readPortCount(h, desc.Spec)
	if err != nil {
		return nil, fmt.Errorf("hub %s: %w", usbhost.Describe(desc), err)
	}

	info := &Info{
		Desc:   desc,
		Ports:  ports,
		Vendor: usbhost.VendorProduct(desc),
		Depth:  usbhost.Tier(desc),
	}

	id, ok, err := containerID(h)
	if err != nil {
		return nil, fmt.Errorf("hub %s: %w", usbhost.Describe(desc), err)
	}
	if ok {
		info.ContainerID = hex.EncodeToString(id[:])
	}

	info.Quirk = applyQuirks(info, quirks)
	return info, nil
}

// readPortCount fetches the hub descriptor and returns bNbrPorts
func readPortCount(h usbhost.Handle, spec gousb.BCD) (int, error) {
	buf := make([]byte, HubDescBufLen)
	descType := HubDescriptorType(spec)
	n, err := h.Control(RequestTypeHubIn, RequestGetDescriptor, uint16(descType)<<8, 0, buf)
	if err != nil {
		return 0, fmt.Errorf("failed to get hub descriptor 0x%02x: %w", descType, err)
	}
	if n < MinHubDescLen {
		return 0, fmt.Errorf("%w: %d bytes, want at least %d", ErrShortHubDescriptor, n, MinHubDescLen)
	}
	return int(buf[2]), nil
}
