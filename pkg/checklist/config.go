package checklist

import (
	"os"
	"strconv"
	"time"
)

// AutoSaveConfig controls debouncing and retries of session auto-save.
type AutoSaveConfig struct {
	Debounce        time.Duration `mapstructure:"debounce"`        // Quiet period before a save fires. Default 1s.
	MaxAttempts     int           `mapstructure:"maxAttempts"`     // Attempts per save, first one included. Default 3.
	InitialInterval time.Duration `mapstructure:"initialInterval"` // First retry delay. Default 200ms.
	MaxInterval     time.Duration `mapstructure:"maxInterval"`     // Retry delay cap. Default 2s.
}

// DefaultAutoSaveConfig returns the default auto-save configuration.
func DefaultAutoSaveConfig() AutoSaveConfig {
	return AutoSaveConfig{
		Debounce:        time.Second,
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// Config controls the checklist engine.
type Config struct {
	TemplatesDir string         `mapstructure:"templatesDir"` // Directory of extra YAML templates. Empty loads none.
	AutoSave     AutoSaveConfig `mapstructure:"autosave"`

	// DraftRetentionDays removes draft sessions untouched for this many
	// days. Zero keeps them forever. Default 30.
	DraftRetentionDays int `mapstructure:"draftRetentionDays"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{AutoSave: DefaultAutoSaveConfig(), DraftRetentionDays: 30}
}

// ConfigFromEnv loads config from environment variables.
// SIGEL_CHECKLIST_TEMPLATES_DIR, SIGEL_CHECKLIST_AUTOSAVE_DEBOUNCE_MS,
// SIGEL_CHECKLIST_AUTOSAVE_MAX_ATTEMPTS, SIGEL_CHECKLIST_AUTOSAVE_INITIAL_INTERVAL_MS,
// SIGEL_CHECKLIST_AUTOSAVE_MAX_INTERVAL_MS, SIGEL_CHECKLIST_DRAFT_RETENTION_DAYS
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	cfg.TemplatesDir = os.Getenv("SIGEL_CHECKLIST_TEMPLATES_DIR")

	if v := os.Getenv("SIGEL_CHECKLIST_AUTOSAVE_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AutoSave.Debounce = time.Duration(n) * time.Millisecond
		}
	}

	if v := os.Getenv("SIGEL_CHECKLIST_AUTOSAVE_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AutoSave.MaxAttempts = n
		}
	}

	if v := os.Getenv("SIGEL_CHECKLIST_AUTOSAVE_INITIAL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AutoSave.InitialInterval = time.Duration(n) * time.Millisecond
		}
	}

	if v := os.Getenv("SIGEL_CHECKLIST_AUTOSAVE_MAX_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AutoSave.MaxInterval = time.Duration(n) * time.Millisecond
		}
	}

	if v := os.Getenv("SIGEL_CHECKLIST_DRAFT_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DraftRetentionDays = n
		}
	}

	return cfg
}
