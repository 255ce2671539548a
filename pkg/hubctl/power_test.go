package hubctl

import (
	"errors"
	"testing"
	"time"

	"github.com/google/gousb"

	"github.com/herlein/hubreset/pkg/usbhost/usbhosttest"
)

// recorder tracks sleeps relative to transfers
type recorder struct {
	host   *usbhosttest.Host
	slept  []time.Duration
	before int // transfers issued before the first sleep
}

func (r *recorder) sleep(d time.Duration) {
	if len(r.slept) == 0 {
		r.before = len(r.host.Transfers)
	}
	r.slept = append(r.slept, d)
}

func newCycler(host *usbhosttest.Host, policy SweepPolicy) (*Cycler, *recorder) {
	rec := &recorder{host: host}
	return &Cycler{
		Host:   host,
		Settle: 250 * time.Millisecond,
		Policy: policy,
		Log:    quietLogger(),
		Sleep:  rec.sleep,
	}, rec
}

func twoHubs() (*usbhosttest.Device, *usbhosttest.Device, *usbhosttest.Host) {
	a := usbhosttest.Hub(1, 2, []int{1}, 0x2109, 0x2817, gousb.Version(2, 10), 4, &testCID)
	b := usbhosttest.Hub(2, 2, []int{1}, 0x2109, 0x0817, gousb.Version(3, 0), 4, &testCID)
	return a, b, usbhosttest.NewHost(a, b)
}

func TestCycle(t *testing.T) {
	t.Parallel()
	a, b, host := twoHubs()
	c, rec := newCycler(host, StopOnTransferError)

	res := c.Cycle(3, []*gousb.DeviceDesc{a.Desc, b.Desc})
	if !res.Complete() || len(res.Errors) != 0 {
		t.Errorf("Cycle() = %+v, want complete without errors", res)
	}

	want := []usbhosttest.Transfer{
		{Bus: 1, Address: 2, Request: RequestClearFeature, Value: PortFeatPower, Index: 3},
		{Bus: 2, Address: 2, Request: RequestClearFeature, Value: PortFeatPower, Index: 3},
		{Bus: 1, Address: 2, Request: RequestSetFeature, Value: PortFeatPower, Index: 3},
		{Bus: 2, Address: 2, Request: RequestSetFeature, Value: PortFeatPower, Index: 3},
	}
	if len(host.Transfers) != len(want) {
		t.Fatalf("transfers = %v, want %v", host.Transfers, want)
	}
	for i := range want {
		if host.Transfers[i] != want[i] {
			t.Errorf("transfer #%d = %s, want %s", i, host.Transfers[i], want[i])
		}
	}

	if len(rec.slept) != 1 || rec.slept[0] != 250*time.Millisecond {
		t.Errorf("slept %v, want a single 250ms settle delay", rec.slept)
	}
	if rec.before != 2 {
		t.Errorf("settle delay after %d transfers, want after the 2 power-off transfers", rec.before)
	}

	// A fresh handle per hub per pass
	if host.Opens != 4 || host.Closes != 4 {
		t.Errorf("opens/closes = %d/%d, want 4/4", host.Opens, host.Closes)
	}
}

func TestCycleOpenFailureContinues(t *testing.T) {
	t.Parallel()
	a, b, host := twoHubs()
	a.OpenErr = errors.New("LIBUSB_ERROR_ACCESS")
	c, _ := newCycler(host, StopOnTransferError)

	res := c.Cycle(3, []*gousb.DeviceDesc{a.Desc, b.Desc})
	if res.Complete() {
		t.Errorf("Cycle() reported complete with an unopenable hub")
	}
	if res.PoweredOff != 1 || res.PoweredOn != 1 || len(res.Errors) != 2 {
		t.Errorf("Cycle() = %+v, want 1 off, 1 on, 2 errors", res)
	}
	if got := host.PowerTransfers(2, 2); len(got) != 2 {
		t.Errorf("transfers to sibling = %v, want off and on", got)
	}
}

func TestCycleNilLog(t *testing.T) {
	t.Parallel()
	a, b, host := twoHubs()
	b.PowerErr = errors.New("LIBUSB_ERROR_PIPE")
	c := &Cycler{Host: host, Policy: BestEffort, Sleep: func(time.Duration) {}}

	res := c.Cycle(3, []*gousb.DeviceDesc{a.Desc, b.Desc})
	if res.PoweredOff != 1 || res.PoweredOn != 1 || len(res.Errors) != 2 {
		t.Errorf("Cycle() = %+v, want 1 off, 1 on, 2 errors", res)
	}
}

func TestCycleTransferFailurePolicy(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		policy     SweepPolicy
		toSibling  int
		poweredOff int
	}{
		{StopOnTransferError, 0, 0},
		{BestEffort, 2, 1},
	} {
		t.Run(tc.policy.String(), func(t *testing.T) {
			a, b, host := twoHubs()
			a.PowerErr = errors.New("LIBUSB_ERROR_PIPE")
			c, rec := newCycler(host, tc.policy)

			res := c.Cycle(3, []*gousb.DeviceDesc{a.Desc, b.Desc})
			if got := len(host.PowerTransfers(2, 2)); got != tc.toSibling {
				t.Errorf("transfers to sibling = %d, want %d", got, tc.toSibling)
			}
			if got := len(host.PowerTransfers(1, 2)); got != 2 {
				t.Errorf("transfers to failing hub = %d, want 2 (off and on attempted)", got)
			}
			if res.PoweredOff != tc.poweredOff {
				t.Errorf("PoweredOff = %d, want %d", res.PoweredOff, tc.poweredOff)
			}
			if len(rec.slept) != 1 {
				t.Errorf("slept %d times, want 1", len(rec.slept))
			}
			if host.Opens != host.Closes {
				t.Errorf("opened %d handles, closed %d", host.Opens, host.Closes)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()
	for _, p := range []SweepPolicy{StopOnTransferError, BestEffort} {
		got, err := ParsePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePolicy(%q) = %v, %v, want %v", p.String(), got, err, p)
		}
	}
	if _, err := ParsePolicy("yolo"); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("ParsePolicy(yolo) error = %v, want %v", err, ErrUnknownPolicy)
	}
}
