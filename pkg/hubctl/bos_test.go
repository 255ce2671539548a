package hubctl

import (
	"errors"
	"testing"

	"github.com/herlein/hubreset/pkg/usbhost/usbhosttest"
)

func TestParseContainerID(t *testing.T) {
	t.Parallel()

	id, ok, err := parseContainerID(usbhosttest.BOSWithContainerID(testCID))
	if err != nil || !ok {
		t.Fatalf("parseContainerID(): ok=%v err=%v", ok, err)
	}
	if id != testCID {
		t.Errorf("container ID = %x, want %x", id, testCID)
	}

	if _, ok, err := parseContainerID(usbhosttest.BOSWithoutContainerID()); err != nil || ok {
		t.Errorf("parseContainerID(no capability): ok=%v err=%v, want false, nil", ok, err)
	}
}

func TestParseContainerIDMalformed(t *testing.T) {
	t.Parallel()
	full := usbhosttest.BOSWithContainerID(testCID)

	zeroLen := append([]byte{}, full...)
	zeroLen[5] = 0

	shortCap := []byte{5, 0x0F, 12, 0, 1, 7, 0x10, 0x04, 0, 1, 2, 3}

	tests := map[string][]byte{
		"too short":           full[:3],
		"truncated":           full[:len(full)-4],
		"zero length cap":     zeroLen,
		"short container cap": shortCap,
	}
	for name, bos := range tests {
		if _, _, err := parseContainerID(bos); !errors.Is(err, ErrMalformedBOS) {
			t.Errorf("%s: parseContainerID() error = %v, want %v", name, err, ErrMalformedBOS)
		}
	}
}
