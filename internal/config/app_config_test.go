package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, c.SlogLevel())
		})
	}
}

func TestAppConfig_DirectoryPaths(t *testing.T) {
	c := &AppConfig{DataDir: "/data"}

	tests := []struct {
		name string
		fn   func() string
		want string
	}{
		{"LogDir", c.LogDir, "/data/logs"},
		{"DBPath", c.DBPath, "/data/notifier.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn())
		})
	}
}

func TestAppConfig_DBPathOverride(t *testing.T) {
	c := &AppConfig{DataDir: "/data", DatabasePath: "/var/lib/notifier/transports.db"}
	assert.Equal(t, "/var/lib/notifier/transports.db", c.DBPath())
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("NOTIFIER_DATA_DIR", "/tmp/test-notifier")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_STDERR", "true")
	t.Setenv("NOTIFIER_TRANSPORTS_FILE", "")
	t.Setenv("NOTIFIER_NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test-notifier", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogStderr)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, filepath.Join("/tmp/test-notifier", "transports.yaml"), cfg.TransportsFile)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LOG_STDERR", "NOTIFIER_TRANSLATIONS_DIR",
		"NOTIFIER_DEFAULT_LOCALE", "NOTIFIER_EVENT_WORKERS", "OTEL_SERVICE_NAME",
	} {
		// Setenv registers the restore; Unsetenv makes envconfig fall back to defaults.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("NOTIFIER_DATA_DIR", t.TempDir())
	t.Setenv("NOTIFIER_TRANSPORTS_FILE", "/etc/notifier/transports.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8990, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogStderr)
	assert.Equal(t, "translations", cfg.TranslationsDir)
	assert.Equal(t, "en", cfg.DefaultLocale)
	assert.Equal(t, 3, cfg.EventWorkers)
	assert.Equal(t, "notifier", cfg.ServiceName)
	assert.Equal(t, "/etc/notifier/transports.yaml", cfg.TransportsFile)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}
