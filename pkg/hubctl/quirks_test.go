package hubctl

import (
	"testing"

	"github.com/google/gousb"
)

const rpi4CID = "5cf3ee30d5074925b001802d79434c30"

func rpi4RootHub() *Info {
	return &Info{
		Desc:   &gousb.DeviceDesc{Bus: 2, Address: 1, Spec: gousb.Version(3, 0), Vendor: 0x1d6b, Product: 0x0003, Class: gousb.ClassHub},
		Ports:  4,
		Vendor: "1d6b:0003",
		Depth:  1,
	}
}

func TestQuirkRPi4RootHub(t *testing.T) {
	t.Parallel()

	info := rpi4RootHub()
	if got, want := applyQuirks(info, DefaultQuirks), "rpi4-vl805-root-hub"; got != want {
		t.Errorf("applyQuirks() = %q, want %q", got, want)
	}
	if info.ContainerID != rpi4CID {
		t.Errorf("ContainerID = %q, want %q", info.ContainerID, rpi4CID)
	}
}

func TestQuirkRequiresEveryCondition(t *testing.T) {
	t.Parallel()
	tests := map[string]func(*Info){
		"container ID present": func(i *Info) { i.ContainerID = testCIDHex },
		"other product":        func(i *Info) { i.Vendor = "1d6b:0002" },
		"other vendor":         func(i *Info) { i.Vendor = "2109:0003" },
		"depth 2":              func(i *Info) { i.Depth = 2 },
		"depth 0":              func(i *Info) { i.Depth = 0 },
		"2 ports":              func(i *Info) { i.Ports = 2 },
		"5 ports":              func(i *Info) { i.Ports = 5 },
		"usb 3.1":              func(i *Info) { i.Desc.Spec = gousb.Version(3, 10) },
		"usb 2.1":              func(i *Info) { i.Desc.Spec = gousb.Version(2, 10) },
	}
	for name, mutate := range tests {
		info := rpi4RootHub()
		mutate(info)
		before := info.ContainerID
		if q := applyQuirks(info, DefaultQuirks); q != "" {
			t.Errorf("%s: quirk %q applied", name, q)
		}
		if info.ContainerID != before {
			t.Errorf("%s: ContainerID changed from %q to %q", name, before, info.ContainerID)
		}
	}
}

func TestApplyQuirksTable(t *testing.T) {
	t.Parallel()
	info := rpi4RootHub()
	got := applyQuirks(info, nil)
	if got != "" || info.ContainerID != "" {
		t.Errorf("empty quirk table applied %q, ContainerID %q", got, info.ContainerID)
	}

	custom := []Quirk{{
		Name:        "any",
		Match:       func(*Info) bool { return true },
		ContainerID: testCIDHex,
	}, {
		Name:        "never reached",
		Match:       func(*Info) bool { return true },
		ContainerID: rpi4CID,
	}}
	if got := applyQuirks(info, custom); got != "any" {
		t.Errorf("applyQuirks() = %q, want first match", got)
	}
	if info.ContainerID != testCIDHex {
		t.Errorf("ContainerID = %q, want %q", info.ContainerID, testCIDHex)
	}
}
