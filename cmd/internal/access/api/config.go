package accessapi

// Config controls contributor API behavior.
type Config struct {
	// TrustProxy enables X-Forwarded-For / X-Real-IP as the client address
	// source. Leave off unless a trusted proxy terminates all traffic.
	TrustProxy bool

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
}

// DefaultConfig returns safe API defaults.
func DefaultConfig() Config {
	return Config{
		TrustProxy:   false,
		MaxBodyBytes: 1 << 20, // 1 MiB
	}
}

func (c Config) withDefaults() Config {
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	return c
}
