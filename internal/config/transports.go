package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/notifier/internal/transport"
)

// TransportConfig declares the transport serving one channel. DSN may
// reference environment variables as ${ENV:NAME}; they are resolved when the
// transport is built, so secrets never have to be stored.
type TransportConfig struct {
	Channel string `yaml:"channel" json:"channel"`
	DSN     string `yaml:"dsn" json:"dsn"`
}

// transportsFile is the on-disk shape of the transports YAML file.
type transportsFile struct {
	Transports []TransportConfig `yaml:"transports"`
}

// Build resolves environment references in the DSN and creates the transport.
func (c TransportConfig) Build(logger *slog.Logger) (transport.Transport, error) {
	dsn, err := interpolateEnv(c.DSN)
	if err != nil {
		return nil, err
	}
	return transport.FromDSN(dsn, logger)
}

// ReadTransportsFile reads the transports YAML file at filePath. A missing
// file yields no entries and no error.
//
//	transports:
//	  - channel: email
//	    dsn: smtp://${ENV:SMTP_USER}:${ENV:SMTP_PASSWORD}@smtp.example.com:587?from=noreply@example.com
//	  - channel: sms/failover_test
//	    dsn: failing://default || null://null
func ReadTransportsFile(filePath string) ([]TransportConfig, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // path is from admin-configured data dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading transports file %q: %w", filePath, err)
	}

	var raw transportsFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing transports file %q: %w", filePath, err)
	}
	for i, entry := range raw.Transports {
		if entry.Channel == "" || entry.DSN == "" {
			return nil, fmt.Errorf("transport entry %d: channel and dsn are required", i)
		}
	}
	return raw.Transports, nil
}

// BuildRegistry returns a registry with one transport per entry, registered
// in order.
func BuildRegistry(entries []TransportConfig, logger *slog.Logger) (*transport.Registry, error) {
	registry := transport.NewRegistry()
	for _, entry := range entries {
		t, err := entry.Build(logger)
		if err != nil {
			return nil, fmt.Errorf("transport %q: %w", entry.Channel, err)
		}
		if err := registry.Register(entry.Channel, t); err != nil {
			return nil, fmt.Errorf("transport %q: %w", entry.Channel, err)
		}
	}
	return registry, nil
}

// interpolateEnv replaces all ${ENV:VAR_NAME} patterns in s with the corresponding
// environment variable values. Returns an error if a referenced variable is not set.
func interpolateEnv(s string) (string, error) {
	result := s
	for {
		start := strings.Index(result, "${ENV:")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}")
		if end == -1 {
			break
		}
		end += start
		varName := result[start+6 : end]
		value := os.Getenv(varName)
		if value == "" {
			return "", fmt.Errorf("required env var %q is not set", varName)
		}
		result = result[:start] + value + result[end+1:]
	}
	return result, nil
}
