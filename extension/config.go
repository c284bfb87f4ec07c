package extension

// Config holds the routeguard extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.routeguard" or "routeguard" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for the admin routes (default: "/routeguard").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// PublicPaths are path templates served without authorization by the
	// middleware returned from Extension.Middleware.
	PublicPaths []string `json:"public_paths" mapstructure:"public_paths" yaml:"public_paths"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath: "/routeguard",
	}
}
