package audit

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("expected Enabled to be true")
	}
	if !cfg.LogDenied {
		t.Error("expected LogDenied to be true")
	}
	if cfg.LogFailures {
		t.Error("expected LogFailures to be false")
	}
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name            string
		envs            map[string]string
		wantEnabled     bool
		wantLogDenied   bool
		wantLogFailures bool
	}{
		{
			name:          "defaults",
			envs:          map[string]string{},
			wantEnabled:   true,
			wantLogDenied: true,
		},
		{
			name: "custom values",
			envs: map[string]string{
				"SIGEL_AUDIT_ENABLED":      "false",
				"SIGEL_AUDIT_LOG_DENIED":   "false",
				"SIGEL_AUDIT_LOG_FAILURES": "true",
			},
			wantLogFailures: true,
		},
		{
			name: "invalid bool reads as false",
			envs: map[string]string{
				"SIGEL_AUDIT_LOG_DENIED": "maybe",
			},
			wantEnabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}

			cfg := ConfigFromEnv()
			if cfg.Enabled != tt.wantEnabled {
				t.Errorf("Enabled = %v, want %v", cfg.Enabled, tt.wantEnabled)
			}
			if cfg.LogDenied != tt.wantLogDenied {
				t.Errorf("LogDenied = %v, want %v", cfg.LogDenied, tt.wantLogDenied)
			}
			if cfg.LogFailures != tt.wantLogFailures {
				t.Errorf("LogFailures = %v, want %v", cfg.LogFailures, tt.wantLogFailures)
			}
		})
	}
}
