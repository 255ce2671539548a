package usbhost

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// SameDevice reports whether a and b describe the same device within one
// enumeration snapshot
func SameDevice(a, b *gousb.DeviceDesc) bool {
	return a.Bus == b.Bus && a.Address == b.Address
}

// Parent returns the hub child is plugged into, or nil when child is a root
// hub or its parent is missing from snapshot
func Parent(snapshot []*gousb.DeviceDesc, child *gousb.DeviceDesc) *gousb.DeviceDesc {
	if len(child.Path) == 0 {
		return nil
	}
	want := child.Path[:len(child.Path)-1]
	for _, desc := range snapshot {
		if desc.Bus == child.Bus && slices.Equal(desc.Path, want) {
			return desc
		}
	}
	return nil
}

// Tier returns the USB tier of desc: 1 for a root hub, plus one per hub
// between it and the root
func Tier(desc *gousb.DeviceDesc) int {
	return len(desc.Path) + 1
}

// Location formats the bus and port chain the way the kernel names devices
// in sysfs, e.g. "1-2.3". Root hubs are "usb1".
func Location(desc *gousb.DeviceDesc) string {
	if len(desc.Path) == 0 {
		return fmt.Sprintf("usb%d", desc.Bus)
	}
	ports := make([]string, len(desc.Path))
	for i, p := range desc.Path {
		ports[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("%d-%s", desc.Bus, strings.Join(ports, "."))
}

// Describe returns a short identification of desc for log messages
func Describe(desc *gousb.DeviceDesc) string {
	return fmt.Sprintf("%s:%s at %s", desc.Vendor, desc.Product, Location(desc))
}

// VendorProduct returns the "vvvv:pppp" form of desc's IDs
func VendorProduct(desc *gousb.DeviceDesc) string {
	return fmt.Sprintf("%s:%s", desc.Vendor, desc.Product)
}
