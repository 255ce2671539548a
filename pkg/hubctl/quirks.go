package hubctl

import "github.com/google/gousb"

// Quirk supplies a container ID for hubs known to omit it
type Quirk struct {
	Name        string
	Match       func(info *Info) bool
	ContainerID string
}

// DefaultQuirks is the built-in quirk table
var DefaultQuirks = []Quirk{
	{
		// The Raspberry Pi 4 USB3 root hub reports no container ID. This is
		// the one the onboard VL805 reports on its USB2 side.
		Name: "rpi4-vl805-root-hub",
		Match: func(info *Info) bool {
			return info.Vendor == "1d6b:0003" &&
				info.Depth == 1 &&
				info.Ports == 4 &&
				info.Desc.Spec == gousb.Version(3, 0)
		},
		ContainerID: "5cf3ee30d5074925b001802d79434c30",
	},
}

// applyQuirks fills in a missing container ID from the first matching quirk.
// It returns the name of the quirk applied, or "".
func applyQuirks(info *Info, quirks []Quirk) string {
	if info.ContainerID != "" {
		return ""
	}
	for _, q := range quirks {
		if q.Match(info) {
			info.ContainerID = q.ContainerID
			return q.Name
		}
	}
	return ""
}
