package hubctl

import (
	"github.com/google/gousb"
	"github.com/sirupsen/logrus"

	"github.com/herlein/hubreset/pkg/usbhost"
)

// Resolver finds the logical hubs that make up one physical hub
type Resolver struct {
	Host   usbhost.Host
	Quirks []Quirk

	// RequireContainerID pairs hubs only when they report a container ID.
	// By default two hubs with no container ID, the same vendor and the
	// same port count are treated as one physical hub.
	RequireContainerID bool

	// Log defaults to logrus.StandardLogger()
	Log logrus.FieldLogger
}

// VirtualHubs resolves parent with DefaultQuirks and the default matching
func VirtualHubs(host usbhost.Host, parent *gousb.DeviceDesc, log logrus.FieldLogger) []*gousb.DeviceDesc {
	r := &Resolver{Host: host, Quirks: DefaultQuirks, Log: log}
	return r.VirtualHubs(parent)
}

// VirtualHubs returns parent together with every other hub that shares its
// container ID and port count. parent is always the first element, so
// the result is never empty.
//
// Candidates are pre-filtered on parent's vendor ID before their
// descriptors are read. A sibling reporting a different vendor ID is
// therefore missed.
func (r *Resolver) VirtualHubs(parent *gousb.DeviceDesc) []*gousb.DeviceDesc {
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	hubs := []*gousb.DeviceDesc{parent}

	parentInfo, err := ResolveWithQuirks(r.Host, parent, r.Quirks)
	if err != nil {
		log.WithError(err).Warnf("Failed to read hub info for %s, only this hub will be power cycled",
			usbhost.Describe(parent))
		return hubs
	}
	log.Debugf("Parent hub: %s", parentInfo)

	if parentInfo.ContainerID == "" && r.RequireContainerID {
		log.Debugf("Hub %s has no container ID, no virtual siblings", usbhost.Describe(parent))
		return hubs
	}

	snapshot, err := r.Host.Devices()
	if err != nil {
		log.WithError(err).Error("Enumeration incomplete while looking for virtual hubs")
	}

	for _, desc := range snapshot {
		if usbhost.SameDevice(desc, parent) || desc.Class != gousb.ClassHub || desc.Vendor != parent.Vendor {
			continue
		}
		info, err := ResolveWithQuirks(r.Host, desc, r.Quirks)
		if err != nil {
			log.WithError(err).Debugf("Skipping hub %s", usbhost.Describe(desc))
			continue
		}
		if info.ContainerID != parentInfo.ContainerID || info.Ports != parentInfo.Ports {
			continue
		}
		log.Infof("Found virtual hub %s", info)
		hubs = append(hubs, desc)
	}

	return hubs
}
