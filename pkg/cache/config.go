package cache

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// CacheConfig holds configuration for the caching layer.
type CacheConfig struct {
	// Enabled controls whether caching is active. When false, no middleware
	// is applied and all requests pass through uncached.
	Enabled bool `mapstructure:"enabled"`

	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend"`

	// TTL is the lifetime of a cached response.
	TTL time.Duration `mapstructure:"ttl"`

	// MaxSize is the maximum number of entries of the memory backend.
	MaxSize int `mapstructure:"maxSize"`

	RedisAddr     string `mapstructure:"redisAddr"`
	RedisPassword string `mapstructure:"redisPassword"`
	RedisDB       int    `mapstructure:"redisDB"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `mapstructure:"keyPrefix"`
}

// DefaultCacheConfig returns a CacheConfig with sensible defaults.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:   true,
		Backend:   BackendMemory,
		TTL:       30 * time.Second,
		MaxSize:   1000,
		RedisAddr: "localhost:6379",
		KeyPrefix: "sigel:",
	}
}

// CacheConfigFromEnv reads cache configuration from environment variables,
// falling back to defaults for any unset variable.
//
// Environment variables:
//   - SIGEL_CACHE_ENABLED: "true" or "false" (default: "true")
//   - SIGEL_CACHE_BACKEND: "memory" or "redis" (default: "memory")
//   - SIGEL_CACHE_TTL: duration in seconds (default: 30)
//   - SIGEL_CACHE_MAX_SIZE: max entries (default: 1000)
//   - SIGEL_CACHE_REDIS_ADDR, SIGEL_CACHE_REDIS_PASSWORD, SIGEL_CACHE_REDIS_DB
func CacheConfigFromEnv() *CacheConfig {
	cfg := DefaultCacheConfig()

	if v := os.Getenv("SIGEL_CACHE_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("SIGEL_CACHE_BACKEND"); v != "" {
		cfg.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SIGEL_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("SIGEL_CACHE_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}
	if v := os.Getenv("SIGEL_CACHE_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("SIGEL_CACHE_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SIGEL_CACHE_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	return cfg
}

// New builds the configured Store. It returns nil, nil when caching is disabled.
func New(cfg *CacheConfig) (Store, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Backend {
	case BackendMemory, "":
		return NewLRUCache(cfg.MaxSize, cfg.TTL), nil
	case BackendRedis:
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL, cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (expected memory or redis)", cfg.Backend)
	}
}
