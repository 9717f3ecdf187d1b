// Package config loads the SIGEL server configuration from defaults, an
// optional YAML file, SIGEL_* environment variables and command-line flags,
// in increasing order of precedence.
//
// Environment variables follow the config keys with dots replaced by
// underscores and without case: database.dsn is SIGEL_DATABASE_DSN and
// server.logLevel is SIGEL_SERVER_LOGLEVEL. Lists are comma-separated.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sigel-gov/sigel/pkg/audit"
	"github.com/sigel-gov/sigel/pkg/authz"
	"github.com/sigel-gov/sigel/pkg/cache"
	"github.com/sigel-gov/sigel/pkg/checklist"
	"github.com/sigel-gov/sigel/pkg/database"
	"github.com/sigel-gov/sigel/pkg/events"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "SIGEL"

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	LogLevel        string        `mapstructure:"logLevel"`
	LogFormat       string        `mapstructure:"logFormat"`
	CORSOrigins     []string      `mapstructure:"corsOrigins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Database  database.Config   `mapstructure:"database"`
	Auth      authz.Config      `mapstructure:"auth"`
	Cache     cache.CacheConfig `mapstructure:"cache"`
	Events    events.Config     `mapstructure:"events"`
	Checklist checklist.Config  `mapstructure:"checklist"`
	Audit     audit.Config      `mapstructure:"audit"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			LogLevel:        "info",
			LogFormat:       FormatText,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 30 * time.Second,
		},
		Database:  *database.DefaultConfig(),
		Auth:      *authz.DefaultConfig(),
		Cache:     *cache.DefaultCacheConfig(),
		Events:    *events.DefaultConfig(),
		Checklist: *checklist.DefaultConfig(),
		Audit:     *audit.DefaultConfig(),
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	defaults := map[string]any{
		"server.addr":            d.Server.Addr,
		"server.logLevel":        d.Server.LogLevel,
		"server.logFormat":       d.Server.LogFormat,
		"server.corsOrigins":     d.Server.CORSOrigins,
		"server.shutdownTimeout": d.Server.ShutdownTimeout,

		"database.type":            d.Database.Type,
		"database.dsn":             d.Database.DSN,
		"database.maxOpenConns":    d.Database.MaxOpenConns,
		"database.maxIdleConns":    d.Database.MaxIdleConns,
		"database.connMaxLifetime": d.Database.ConnMaxLifetime,
		"database.debug":           d.Database.Debug,

		"auth.mode":      string(d.Auth.Mode),
		"auth.jwtSecret": d.Auth.JWTSecret,
		"auth.roleClaim": d.Auth.RoleClaim,
		"auth.issuer":    d.Auth.Issuer,

		"cache.enabled":       d.Cache.Enabled,
		"cache.backend":       d.Cache.Backend,
		"cache.ttl":           d.Cache.TTL,
		"cache.maxSize":       d.Cache.MaxSize,
		"cache.redisAddr":     d.Cache.RedisAddr,
		"cache.redisPassword": d.Cache.RedisPassword,
		"cache.redisDB":       d.Cache.RedisDB,
		"cache.keyPrefix":     d.Cache.KeyPrefix,

		"events.backend":           d.Events.Backend,
		"events.kafka.brokers":     d.Events.Kafka.Brokers,
		"events.kafka.topic":       d.Events.Kafka.Topic,
		"events.rabbitmq.url":      d.Events.RabbitMQ.URL,
		"events.rabbitmq.exchange": d.Events.RabbitMQ.Exchange,

		"checklist.templatesDir":             d.Checklist.TemplatesDir,
		"checklist.draftRetentionDays":       d.Checklist.DraftRetentionDays,
		"checklist.autosave.debounce":        d.Checklist.AutoSave.Debounce,
		"checklist.autosave.maxAttempts":     d.Checklist.AutoSave.MaxAttempts,
		"checklist.autosave.initialInterval": d.Checklist.AutoSave.InitialInterval,
		"checklist.autosave.maxInterval":     d.Checklist.AutoSave.MaxInterval,

		"audit.enabled":     d.Audit.Enabled,
		"audit.logDenied":   d.Audit.LogDenied,
		"audit.logFailures": d.Audit.LogFailures,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"addr":           "server.addr",
	"log-level":      "server.logLevel",
	"log-format":     "server.logFormat",
	"db-type":        "database.type",
	"db-dsn":         "database.dsn",
	"auth-mode":      "auth.mode",
	"cache-backend":  "cache.backend",
	"events-backend": "events.backend",
	"templates-dir":  "checklist.templatesDir",
}

// Loader reads the configuration and keeps the process log level in sync
// with it.
type Loader struct {
	v      *viper.Viper
	level  *slog.LevelVar
	logger *slog.Logger
}

// NewLoader creates a Loader with defaults and environment lookup set up.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, level: new(slog.LevelVar)}
}

// SetLogger sets the logger used to report reloads.
func (l *Loader) SetLogger(logger *slog.Logger) { l.logger = logger }

// Level is the log level of the loaded configuration. Handlers built on
// it follow reloads.
func (l *Loader) Level() *slog.LevelVar { return l.level }

// RegisterFlags defines the server flags on fs and binds them to their
// config keys.
func (l *Loader) RegisterFlags(fs *pflag.FlagSet) error {
	d := Default()
	fs.String("addr", d.Server.Addr, "HTTP listen address")
	fs.String("log-level", d.Server.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.Server.LogFormat, "Log format (text or json)")
	fs.String("db-type", d.Database.Type, "Database type (sqlite, postgres or mysql)")
	fs.String("db-dsn", d.Database.DSN, "Database connection string")
	fs.String("auth-mode", string(d.Auth.Mode), "Role switch mode (header or jwt)")
	fs.String("cache-backend", d.Cache.Backend, "Read cache backend (memory or redis)")
	fs.String("events-backend", d.Events.Backend, "Event backend (none, memory, kafka or rabbitmq)")
	fs.String("templates-dir", d.Checklist.TemplatesDir, "Directory of extra checklist templates")

	for name, key := range flagKeys {
		if err := l.v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads path, when set, and returns the merged configuration.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg, err := l.unmarshal()
	if err != nil {
		return nil, err
	}
	l.level.Set(mustLevel(cfg.Server.LogLevel))
	return cfg, nil
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch reloads the config file whenever it changes. The log level is
// applied immediately; onChange, when set, receives every valid reload.
// Other settings take effect on restart. Without a config file Watch does
// nothing.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		logger := l.logger
		if logger == nil {
			logger = slog.Default()
		}
		cfg, err := l.unmarshal()
		if err != nil {
			logger.Error("config reload rejected", "file", e.Name, "error", err)
			return
		}
		l.level.Set(mustLevel(cfg.Server.LogLevel))
		logger.Info("config reloaded", "file", e.Name, "op", e.Op.String(), "logLevel", cfg.Server.LogLevel)
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Server.LogLevel); err != nil {
		return err
	}
	switch c.Server.LogFormat {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q (expected text or json)", c.Server.LogFormat)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	return nil
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}

func mustLevel(s string) slog.Level {
	lvl, _ := ParseLevel(s)
	return lvl
}

// NewLogger builds the process logger writing to w at level.
func NewLogger(w io.Writer, format string, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
