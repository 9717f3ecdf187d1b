package database

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Database types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
)

// Config selects the database and tunes its connection pool.
type Config struct {
	Type            string        `mapstructure:"type"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	// Debug logs every SQL statement.
	Debug bool `mapstructure:"debug"`
}

// DefaultConfig returns an embedded SQLite database in the working directory.
func DefaultConfig() *Config {
	return &Config{
		Type:            TypeSQLite,
		DSN:             "sigel.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// ConfigFromEnv reads SIGEL_DB_TYPE, SIGEL_DB_DSN, SIGEL_DB_MAX_OPEN_CONNS
// and SIGEL_DB_DEBUG over the defaults. DATABASE_DSN is accepted as a
// fallback for the DSN.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("SIGEL_DB_TYPE"); v != "" {
		cfg.Type = strings.ToLower(v)
	}
	if v := os.Getenv("SIGEL_DB_DSN"); v != "" {
		cfg.DSN = v
	} else if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("SIGEL_DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxOpenConns = n
		}
	}
	if v := os.Getenv("SIGEL_DB_DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}

	return cfg
}
