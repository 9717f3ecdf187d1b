package authz

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Mode selects how the request role is resolved.
type Mode string

const (
	// ModeHeader reads X-User-Role (default).
	ModeHeader Mode = "header"
	// ModeJWT reads a role claim from a bearer token.
	ModeJWT Mode = "jwt"
)

// Config holds role-switch settings.
type Config struct {
	Mode      Mode   `mapstructure:"mode"`
	JWTSecret string `mapstructure:"jwtSecret"`
	RoleClaim string `mapstructure:"roleClaim"`
	Issuer    string `mapstructure:"issuer"`
}

// DefaultConfig returns the header-based role switch.
func DefaultConfig() *Config {
	return &Config{Mode: ModeHeader, RoleClaim: "role"}
}

// ConfigFromEnv reads SIGEL_AUTH_MODE, SIGEL_AUTH_JWT_SECRET,
// SIGEL_AUTH_ROLE_CLAIM and SIGEL_AUTH_ISSUER over the defaults.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("SIGEL_AUTH_MODE"); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}
	if v := os.Getenv("SIGEL_AUTH_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SIGEL_AUTH_ROLE_CLAIM"); v != "" {
		cfg.RoleClaim = v
	}
	if v := os.Getenv("SIGEL_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}
	return cfg
}

// NewExtractor builds the RoleExtractor for cfg.
func NewExtractor(cfg *Config, logger *slog.Logger) (RoleExtractor, error) {
	switch cfg.Mode {
	case ModeHeader, "":
		return HeaderRoleExtractor(), nil
	case ModeJWT:
		return NewJWTRoleExtractor(JWTConfig{
			RoleClaim: cfg.RoleClaim,
			Secret:    cfg.JWTSecret,
			Issuer:    cfg.Issuer,
			Logger:    logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q (expected header or jwt)", cfg.Mode)
	}
}
