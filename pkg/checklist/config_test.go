package checklist

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TemplatesDir != "" {
		t.Errorf("expected empty TemplatesDir, got %q", cfg.TemplatesDir)
	}
	if cfg.AutoSave.Debounce != time.Second {
		t.Errorf("expected Debounce 1s, got %v", cfg.AutoSave.Debounce)
	}
	if cfg.AutoSave.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts 3, got %d", cfg.AutoSave.MaxAttempts)
	}
	if cfg.AutoSave.InitialInterval != 200*time.Millisecond {
		t.Errorf("expected InitialInterval 200ms, got %v", cfg.AutoSave.InitialInterval)
	}
	if cfg.AutoSave.MaxInterval != 2*time.Second {
		t.Errorf("expected MaxInterval 2s, got %v", cfg.AutoSave.MaxInterval)
	}
	if cfg.DraftRetentionDays != 30 {
		t.Errorf("expected DraftRetentionDays 30, got %d", cfg.DraftRetentionDays)
	}
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name         string
		envs         map[string]string
		wantDir      string
		wantDebounce time.Duration
		wantAttempts int
	}{
		{
			name:         "defaults",
			envs:         map[string]string{},
			wantDebounce: time.Second,
			wantAttempts: 3,
		},
		{
			name: "custom values",
			envs: map[string]string{
				"SIGEL_CHECKLIST_TEMPLATES_DIR":         "/etc/sigel/templates",
				"SIGEL_CHECKLIST_AUTOSAVE_DEBOUNCE_MS":  "250",
				"SIGEL_CHECKLIST_AUTOSAVE_MAX_ATTEMPTS": "5",
			},
			wantDir:      "/etc/sigel/templates",
			wantDebounce: 250 * time.Millisecond,
			wantAttempts: 5,
		},
		{
			name: "invalid values fall back to defaults",
			envs: map[string]string{
				"SIGEL_CHECKLIST_AUTOSAVE_DEBOUNCE_MS":  "soon",
				"SIGEL_CHECKLIST_AUTOSAVE_MAX_ATTEMPTS": "0",
			},
			wantDebounce: time.Second,
			wantAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}

			cfg := ConfigFromEnv()
			if cfg.TemplatesDir != tt.wantDir {
				t.Errorf("TemplatesDir = %q, want %q", cfg.TemplatesDir, tt.wantDir)
			}
			if cfg.AutoSave.Debounce != tt.wantDebounce {
				t.Errorf("Debounce = %v, want %v", cfg.AutoSave.Debounce, tt.wantDebounce)
			}
			if cfg.AutoSave.MaxAttempts != tt.wantAttempts {
				t.Errorf("MaxAttempts = %d, want %d", cfg.AutoSave.MaxAttempts, tt.wantAttempts)
			}
		})
	}
}
