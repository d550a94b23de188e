package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifier/internal/transport"
)

func writeTransports(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transports.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func loadTransports(path string) (*transport.Registry, error) {
	entries, err := ReadTransportsFile(path)
	if err != nil {
		return nil, err
	}
	return BuildRegistry(entries, nil)
}

func TestLoadTransports(t *testing.T) {
	t.Setenv("TEST_SMTP_PASSWORD", "s3cret")
	path := writeTransports(t, `
transports:
  - channel: email
    dsn: smtp://user:${ENV:TEST_SMTP_PASSWORD}@smtp.example.com:2525?from=noreply@example.com
  - channel: sms/failover_test
    dsn: failing://default || null://null
  - channel: chat/failover_test
    dsn: failing://default || null://null
  - channel: push
    dsn: null://null
`)

	reg, err := loadTransports(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"email", "sms", "chat", "push"}, reg.DefaultChannels())

	email, ok := reg.Lookup("email")
	require.True(t, ok)
	assert.Equal(t, "smtp", email.Name())

	sms, ok := reg.Lookup("sms/failover_test")
	require.True(t, ok)
	assert.Equal(t, "failing || null", sms.Name())

	assert.False(t, reg.Supports("sms/test"))
}

func TestLoadTransports_MissingFile(t *testing.T) {
	entries, err := ReadTransportsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	reg, err := BuildRegistry(entries, nil)
	require.NoError(t, err)
	assert.Empty(t, reg.Channels())
}

func TestLoadTransports_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			yaml:    "transports: [",
			wantErr: "parsing transports file",
		},
		{
			name: "missing dsn",
			yaml: `
transports:
  - channel: email
`,
			wantErr: "channel and dsn are required",
		},
		{
			name: "unknown scheme",
			yaml: `
transports:
  - channel: email
    dsn: pigeon://coop
`,
			wantErr: "unsupported transport scheme",
		},
		{
			name: "unset env var",
			yaml: `
transports:
  - channel: sms
    dsn: twilio://AC1:${ENV:NOTIFIER_TEST_UNSET_VAR}@default?from=%2B1500
`,
			wantErr: "NOTIFIER_TEST_UNSET_VAR",
		},
		{
			name: "duplicate channel",
			yaml: `
transports:
  - channel: chat
    dsn: null://null
  - channel: chat
    dsn: null://null
`,
			wantErr: "already registered",
		},
		{
			name: "unknown channel kind",
			yaml: `
transports:
  - channel: fax
    dsn: null://null
`,
			wantErr: "fax",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadTransports(writeTransports(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadTransportsFile_KeepsEnvReferences(t *testing.T) {
	path := writeTransports(t, `
transports:
  - channel: sms/twilio
    dsn: twilio://AC1:${ENV:TWILIO_TOKEN}@default?from=%2B15005550006
`)
	entries, err := ReadTransportsFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, TransportConfig{
		Channel: "sms/twilio",
		DSN:     "twilio://AC1:${ENV:TWILIO_TOKEN}@default?from=%2B15005550006",
	}, entries[0])

	_, err = entries[0].Build(nil)
	require.Error(t, err, "building needs the variable to be set")

	t.Setenv("TWILIO_TOKEN", "tok")
	tr, err := entries[0].Build(nil)
	require.NoError(t, err)
	assert.Equal(t, "twilio", tr.Name())
}

func TestInterpolateEnv(t *testing.T) {
	t.Setenv("NOTIFIER_TEST_A", "alpha")
	t.Setenv("NOTIFIER_TEST_B", "beta")

	got, err := interpolateEnv("x-${ENV:NOTIFIER_TEST_A}-${ENV:NOTIFIER_TEST_B}")
	require.NoError(t, err)
	assert.Equal(t, "x-alpha-beta", got)

	got, err = interpolateEnv("no placeholders")
	require.NoError(t, err)
	assert.Equal(t, "no placeholders", got)

	_, err = interpolateEnv("${ENV:NOTIFIER_TEST_DEFINITELY_UNSET}")
	assert.Error(t, err)
}
