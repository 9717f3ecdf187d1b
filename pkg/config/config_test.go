package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigel-gov/sigel/pkg/authz"
	"github.com/sigel-gov/sigel/pkg/database"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load("")
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.Database, cfg.Database)
	assert.Equal(t, authz.ModeHeader, cfg.Auth.Mode)
	assert.Equal(t, want.Cache, cfg.Cache)
	assert.Equal(t, want.Events, cfg.Events)
	assert.Equal(t, want.Checklist, cfg.Checklist)
	assert.Equal(t, want.Audit, cfg.Audit)
}

const fileYAML = `
server:
  addr: ":9090"
  logLevel: warn
  logFormat: json
  corsOrigins: ["https://sigel.gov.br"]
database:
  type: postgres
  dsn: postgres://sigel@db/sigel
cache:
  backend: redis
  ttl: 2m
events:
  backend: kafka
  kafka:
    brokers: ["k1:9092", "k2:9092"]
checklist:
  templatesDir: /etc/sigel/templates
  autosave:
    debounce: 250ms
`

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigel.yaml")
	writeFile(t, path, fileYAML)

	l := NewLoader()
	cfg, err := l.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, FormatJSON, cfg.Server.LogFormat)
	assert.Equal(t, []string{"https://sigel.gov.br"}, cfg.Server.CORSOrigins)
	assert.Equal(t, slog.LevelWarn, l.Level().Level())
	assert.Equal(t, database.TypePostgres, cfg.Database.Type)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Cache.MaxSize, "unset keys keep their default")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Kafka.Brokers)
	assert.Equal(t, "/etc/sigel/templates", cfg.Checklist.TemplatesDir)
	assert.Equal(t, 250*time.Millisecond, cfg.Checklist.AutoSave.Debounce)
	assert.Equal(t, 3, cfg.Checklist.AutoSave.MaxAttempts)

	t.Setenv("SIGEL_DATABASE_DSN", "postgres://env@db/sigel")
	t.Setenv("SIGEL_SERVER_ADDR", ":7070")
	t.Setenv("SIGEL_EVENTS_KAFKA_BROKERS", "k3:9092,k4:9092")
	t.Setenv("SIGEL_AUTH_MODE", "jwt")

	l = NewLoader()
	fs := pflag.NewFlagSet("sigel-server", pflag.ContinueOnError)
	require.NoError(t, l.RegisterFlags(fs))
	require.NoError(t, fs.Parse([]string{"--addr=:6060", "--log-level=debug"}))

	cfg, err = l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.Server.Addr, "flags beat env")
	assert.Equal(t, "postgres://env@db/sigel", cfg.Database.DSN, "env beats file")
	assert.Equal(t, []string{"k3:9092", "k4:9092"}, cfg.Events.Kafka.Brokers)
	assert.Equal(t, authz.ModeJWT, cfg.Auth.Mode)
	assert.Equal(t, slog.LevelDebug, l.Level().Level())
	assert.Equal(t, database.TypePostgres, cfg.Database.Type, "unchanged flags do not override the file")
}

func TestLoad_Errors(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "server:\n  logLevel: loud\n")
	_, err = NewLoader().Load(path)
	require.ErrorContains(t, err, "invalid log level")

	writeFile(t, path, "server:\n  logFormat: xml\n")
	_, err = NewLoader().Load(path)
	require.ErrorContains(t, err, "invalid log format")
}

func TestWatch_ReloadsLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigel.yaml")
	writeFile(t, path, "server:\n  logLevel: info\n")

	l := NewLoader()
	l.SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	_, err := l.Load(path)
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, l.Level().Level())

	l.Watch(nil)
	writeFile(t, path, "server:\n  logLevel: debug\n")

	require.Eventually(t, func() bool {
		return l.Level().Level() == slog.LevelDebug
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_NoFileIsNoop(t *testing.T) {
	l := NewLoader()
	_, err := l.Load("")
	require.NoError(t, err)
	l.Watch(func(*Config) { t.Error("unexpected reload") })
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)

	logger := NewLogger(&buf, FormatJSON, level)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	level.Set(slog.LevelInfo)
	logger.Info("shown", "leilaoID", "a1")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"leilaoID":"a1"`)

	buf.Reset()
	NewLogger(&buf, FormatText, level).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
