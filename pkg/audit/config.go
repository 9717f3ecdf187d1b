package audit

import (
	"os"
	"strconv"
)

// Config controls which rejected requests reach the audit trail.
type Config struct {
	Enabled     bool `mapstructure:"enabled"`     // Whether the middleware is active
	LogDenied   bool `mapstructure:"logDenied"`   // Record requests refused with 403
	LogFailures bool `mapstructure:"logFailures"` // Record other 4xx/5xx mutations
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		LogDenied: true,
	}
}

// ConfigFromEnv loads config from environment variables.
// SIGEL_AUDIT_ENABLED, SIGEL_AUDIT_LOG_DENIED, SIGEL_AUDIT_LOG_FAILURES
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("SIGEL_AUDIT_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}

	if v := os.Getenv("SIGEL_AUDIT_LOG_DENIED"); v != "" {
		cfg.LogDenied, _ = strconv.ParseBool(v)
	}

	if v := os.Getenv("SIGEL_AUDIT_LOG_FAILURES"); v != "" {
		cfg.LogFailures, _ = strconv.ParseBool(v)
	}

	return cfg
}
