package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/gousb"

	"github.com/herlein/hubreset/pkg/hubctl"
)

// Default target: Movidius Myriad X boot device (RealSense T265)
const (
	DefaultVendorID  = gousb.ID(0x03e7)
	DefaultProductID = gousb.ID(0x2150)
)

// Default timings
const (
	DefaultControlTimeout = 5000 * time.Millisecond
	DefaultSettleDelay    = 150 * time.Millisecond
	MaxSettleDelay        = 10 * time.Second
	MaxLibusbDebug        = 4
)

// Config holds everything a reset run needs to know
type Config struct {
	VendorID       gousb.ID
	ProductID      gousb.ID
	ControlTimeout time.Duration
	SettleDelay    time.Duration
	Policy         string
	LibusbDebug    int

	// RequireContainerID stops hubs without a container ID from being
	// paired with each other
	RequireContainerID bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		VendorID:       DefaultVendorID,
		ProductID:      DefaultProductID,
		ControlTimeout: DefaultControlTimeout,
		SettleDelay:    DefaultSettleDelay,
		Policy:         hubctl.StopOnTransferError.String(),
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.VendorID == 0 || c.ProductID == 0 {
		return fmt.Errorf("%w: target %s:%s", ErrInvalidConfig, c.VendorID, c.ProductID)
	}
	if c.ControlTimeout <= 0 {
		return fmt.Errorf("%w: control timeout %v must be positive", ErrInvalidConfig, c.ControlTimeout)
	}
	if c.SettleDelay < 0 || c.SettleDelay > MaxSettleDelay {
		return fmt.Errorf("%w: settle delay %v must be between 0 and %v", ErrInvalidConfig, c.SettleDelay, MaxSettleDelay)
	}
	if _, err := hubctl.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.LibusbDebug < 0 || c.LibusbDebug > MaxLibusbDebug {
		return fmt.Errorf("%w: libusb debug level %d must be between 0 and %d", ErrInvalidConfig, c.LibusbDebug, MaxLibusbDebug)
	}
	return nil
}

// SweepPolicy returns the parsed Policy. Call Validate first.
func (c *Config) SweepPolicy() hubctl.SweepPolicy {
	p, _ := hubctl.ParsePolicy(c.Policy)
	return p
}

// Target returns the "vvvv:pppp" form of the target IDs
func (c *Config) Target() string {
	return fmt.Sprintf("%s:%s", c.VendorID, c.ProductID)
}

// ParseID parses a hex vendor or product ID, with or without a 0x prefix
func ParseID(s string) (gousb.ID, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: bad USB ID %q", ErrInvalidConfig, s)
	}
	return gousb.ID(v), nil
}
