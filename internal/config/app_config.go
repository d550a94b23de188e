package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.notifier.
	DataDir string `envconfig:"NOTIFIER_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogStderr mirrors the system log to stderr.
	LogStderr bool `envconfig:"LOG_STDERR" default:"false"`

	// TransportsFile is the YAML file declaring channel transports.
	// Defaults to <DataDir>/transports.yaml.
	TransportsFile string `envconfig:"NOTIFIER_TRANSPORTS_FILE"`

	// DatabasePath overrides the location of the transport database.
	DatabasePath string `envconfig:"NOTIFIER_DB_PATH"`

	// TranslationsDir holds the <domain>.<locale>.yaml catalogs.
	TranslationsDir string `envconfig:"NOTIFIER_TRANSLATIONS_DIR" default:"translations"`

	// DefaultLocale is the last step of the translation fallback chain and
	// the locale the test command assumes when none is given.
	DefaultLocale string `envconfig:"NOTIFIER_DEFAULT_LOCALE" default:"en"`

	// EventWorkers is the number of goroutines delivering completion events.
	EventWorkers int `envconfig:"NOTIFIER_EVENT_WORKERS" default:"3"`

	// NATSURL switches the completion event stream to NATS when set.
	NATSURL string `envconfig:"NOTIFIER_NATS_URL"`

	// OTLPEndpoint enables OTLP export of traces, metrics and logs when set.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// ServiceName is reported to the telemetry backend.
	ServiceName string `envconfig:"OTEL_SERVICE_NAME" default:"notifier"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.notifier if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".notifier")
	}
	if c.TransportsFile == "" {
		c.TransportsFile = filepath.Join(c.DataDir, "transports.yaml")
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.notifier/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database holding the transport
// configuration, <DataDir>/notifier.db unless NOTIFIER_DB_PATH is set.
func (c *AppConfig) DBPath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.DataDir, "notifier.db")
}
