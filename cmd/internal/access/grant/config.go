package grant

import "time"

// Config defines runtime policy for the grant subsystem.
type Config struct {
	// DefaultDuration is the lifetime of a freshly created grant.
	DefaultDuration time.Duration

	// MaxConcurrent is the per-contributor cap on live grants, checked at
	// creation time.
	MaxConcurrent int

	// MaxExtensionHours bounds a single extension request. The bound applies
	// to the requested increment, not to the resulting remaining lifetime;
	// repeated extensions can push a grant arbitrarily far.
	MaxExtensionHours int

	// SweepInterval is how often the reaper deactivates expired grants.
	SweepInterval time.Duration
}

// DefaultConfig returns production defaults: 24h grants, cap of 3, 72h
// extension ceiling, hourly sweeps.
func DefaultConfig() Config {
	return Config{
		DefaultDuration:   24 * time.Hour,
		MaxConcurrent:     3,
		MaxExtensionHours: 72,
		SweepInterval:     time.Hour,
	}
}

// Validate reports ErrConfig for unusable policy values.
func (c Config) Validate() error {
	if c.DefaultDuration <= 0 {
		return ErrConfig
	}
	if c.MaxConcurrent <= 0 {
		return ErrConfig
	}
	if c.MaxExtensionHours <= 0 {
		return ErrConfig
	}
	if c.SweepInterval <= 0 {
		return ErrConfig
	}
	return nil
}
