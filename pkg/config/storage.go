package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrInvalidConfig indicates a configuration value is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigFile is the JSON form of Config. Absent fields keep their defaults.
type ConfigFile struct {
	VendorID           string `json:"vendor_id,omitempty"`
	ProductID          string `json:"product_id,omitempty"`
	ControlTimeoutMs   *int   `json:"control_timeout_ms,omitempty"`
	SettleDelayMs      *int   `json:"settle_delay_ms,omitempty"`
	Policy             string `json:"policy,omitempty"`
	LibusbDebug        *int   `json:"libusb_debug,omitempty"`
	RequireContainerID *bool  `json:"require_container_id,omitempty"`
}

// LoadFromFile reads path over the defaults and validates the result
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file ConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	configuration := DefaultConfig()
	if err := file.apply(configuration); err != nil {
		return nil, err
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return configuration, nil
}

func (f *ConfigFile) apply(c *Config) error {
	if f.VendorID != "" {
		id, err := ParseID(f.VendorID)
		if err != nil {
			return fmt.Errorf("vendor_id: %w", err)
		}
		c.VendorID = id
	}
	if f.ProductID != "" {
		id, err := ParseID(f.ProductID)
		if err != nil {
			return fmt.Errorf("product_id: %w", err)
		}
		c.ProductID = id
	}
	if f.ControlTimeoutMs != nil {
		c.ControlTimeout = time.Duration(*f.ControlTimeoutMs) * time.Millisecond
	}
	if f.SettleDelayMs != nil {
		c.SettleDelay = time.Duration(*f.SettleDelayMs) * time.Millisecond
	}
	if f.Policy != "" {
		c.Policy = f.Policy
	}
	if f.LibusbDebug != nil {
		c.LibusbDebug = *f.LibusbDebug
	}
	if f.RequireContainerID != nil {
		c.RequireContainerID = *f.RequireContainerID
	}
	return nil
}
