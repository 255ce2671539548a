package hubctl

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/herlein/hubreset/pkg/usbhost"
)

// readBOS fetches the complete BOS descriptor: the header first to learn
// wTotalLength, then the whole thing
func readBOS(h usbhost.Handle) ([]byte, error) {
	header := make([]byte, BOSHeaderLen)
	n, err := h.Control(RequestTypeStandardIn, RequestGetDescriptor, DescTypeBOS<<8, 0, header)
	if err != nil {
		return nil, fmt.Errorf("BOS header: %w", err)
	}
	if n < BOSHeaderLen || header[1] != DescTypeBOS {
		return nil, fmt.Errorf("%w: header of %d bytes, type 0x%02x", ErrMalformedBOS, n, header[1])
	}

	total := int(binary.LittleEndian.Uint16(header[2:4]))
	if total < BOSHeaderLen {
		return nil, fmt.Errorf("%w: wTotalLength %d", ErrMalformedBOS, total)
	}

	buf := make([]byte, total)
	n, err = h.Control(RequestTypeStandardIn, RequestGetDescriptor, DescTypeBOS<<8, 0, buf)
	if err != nil {
		return nil, fmt.Errorf("BOS body: %w", err)
	}
	if n < total {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrMalformedBOS, n, total)
	}
	return buf[:n], nil
}

// parseContainerID walks the device capabilities in bos. The bool is false when
// there is no Container ID capability.
func parseContainerID(bos []byte) (uuid.UUID, bool, error) {
	if len(bos) < BOSHeaderLen {
		return uuid.Nil, false, fmt.Errorf("%w: %d bytes", ErrMalformedBOS, len(bos))
	}
	numCaps := int(bos[4])
	off := BOSHeaderLen

	for i := 0; i < numCaps && off < len(bos); i++ {
		if off+3 > len(bos) {
			return uuid.Nil, false, fmt.Errorf("%w: truncated capability %d", ErrMalformedBOS, i)
		}
		length := int(bos[off])
		if length < 3 || off+length > len(bos) {
			return uuid.Nil, false, fmt.Errorf("%w: capability %d has length %d", ErrMalformedBOS, i, length)
		}
		capDesc := bos[off : off+length]
		if capDesc[1] == DescTypeDeviceCap && capDesc[2] == CapContainerID {
			if length < ContainerIDCapLen {
				return uuid.Nil, false, fmt.Errorf("%w: container ID capability of %d bytes", ErrMalformedBOS, length)
			}
			id, err := uuid.FromBytes(capDesc[4 : 4+ContainerIDLen])
			if err != nil {
				return uuid.Nil, false, fmt.Errorf("%w: %v", ErrMalformedBOS, err)
			}
			return id, true, nil
		}
		off += length
	}
	return uuid.Nil, false, nil
}

// containerID reads the Container ID, retrying the BOS fetch once.
// A device without the capability yields uuid.Nil and false.
func containerID(h usbhost.Handle) (uuid.UUID, bool, error) {
	var lastErr error
	for attempt := 0; attempt < bosAttempts; attempt++ {
		bos, err := readBOS(h)
		if err != nil {
			lastErr = err
			continue
		}
		return parseContainerID(bos)
	}
	return uuid.Nil, false, fmt.Errorf("%w after %d attempts: %v", ErrBOS, bosAttempts, lastErr)
}
