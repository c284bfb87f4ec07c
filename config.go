package routeguard

import "time"

// Config holds configuration for the routeguard engine.
type Config struct {
	// CacheTTL is the time-to-live for cached check results.
	// Zero disables caching even when a Cache is configured.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// MaxPermissionsPerRole caps how many permissions a single check
	// evaluates. Zero means unlimited.
	MaxPermissionsPerRole int `json:"max_permissions_per_role,omitempty"`

	// LogDenials logs every denied check at info level.
	LogDenials bool `json:"log_denials,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL: time.Minute,
	}
}
