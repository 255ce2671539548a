package hubctl

import "errors"

// Hub control errors
var (
	// ErrShortHubDescriptor indicates the hub returned fewer bytes than a
	// valid hub descriptor holds
	ErrShortHubDescriptor = errors.New("hub descriptor too short")

	// ErrBOS indicates the BOS descriptor could not be fetched
	ErrBOS = errors.New("failed to read BOS descriptor")

	// ErrMalformedBOS indicates the BOS descriptor did not parse
	ErrMalformedBOS = errors.New("malformed BOS descriptor")

	// ErrUnknownPolicy indicates an unrecognized sweep policy name
	ErrUnknownPolicy = errors.New("unknown sweep policy")
)
