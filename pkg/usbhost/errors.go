package usbhost

import "errors"

// Host errors
var (
	// ErrOpen indicates a device could not be opened (usually permissions)
	ErrOpen = errors.New("failed to open device")

	// ErrNotFound indicates a device disappeared since it was enumerated
	ErrNotFound = errors.New("device not found")
)
