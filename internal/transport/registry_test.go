package transport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifier/internal/transport"
)

func TestRegistry_LookupAndDefaults(t *testing.T) {
	r := transport.NewRegistry()
	require.NoError(t, r.Register("sms/test", &stubTransport{name: "sms-test"}))
	require.NoError(t, r.Register("sms/failover_test", &stubTransport{name: "sms-failover"}))
	require.NoError(t, r.Register("chat/test", &stubTransport{name: "chat-test"}))
	require.NoError(t, r.Register("email", &stubTransport{name: "mail"}))

	got, ok := r.Lookup("sms/failover_test")
	require.True(t, ok)
	assert.Equal(t, "sms-failover", got.Name())

	// A bare kind resolves to the first transport registered for it.
	got, ok = r.Lookup("sms")
	require.True(t, ok)
	assert.Equal(t, "sms-test", got.Name())

	assert.True(t, r.Supports("email"))
	assert.True(t, r.Supports("chat"))
	assert.False(t, r.Supports("push"))
	assert.False(t, r.Supports("sms/unknown"))
	assert.False(t, r.Supports("fax"))

	assert.Equal(t, []string{"sms", "chat", "email"}, r.DefaultChannels())
	assert.ElementsMatch(t, []string{"sms/test", "sms/failover_test", "chat/test", "email"}, r.Channels())
}

func TestRegistry_BareKindOverridesDefault(t *testing.T) {
	r := transport.NewRegistry()
	require.NoError(t, r.Register("sms/test", &stubTransport{name: "sms-test"}))
	require.NoError(t, r.Register("sms", &stubTransport{name: "sms-main"}))

	got, ok := r.Lookup("sms")
	require.True(t, ok)
	assert.Equal(t, "sms-main", got.Name())
	assert.Equal(t, []string{"sms"}, r.DefaultChannels())
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := transport.NewRegistry()
	require.NoError(t, r.Register("email", &stubTransport{name: "mail"}))
	assert.Error(t, r.Register("email", &stubTransport{name: "mail2"}))
	assert.Error(t, r.Register("fax/x", &stubTransport{name: "fax"}))
}

func TestRegistry_Replace(t *testing.T) {
	r := transport.NewRegistry()
	require.NoError(t, r.Register("email", &stubTransport{name: "old"}))

	next := transport.NewRegistry()
	require.NoError(t, next.Register("sms/test", &stubTransport{name: "sms-test"}))
	r.Replace(next)

	assert.False(t, r.Supports("email"))
	got, ok := r.Lookup("sms")
	require.True(t, ok)
	assert.Equal(t, "sms-test", got.Name())
	assert.Equal(t, []string{"sms"}, r.DefaultChannels())

	// Later changes to the source do not leak into r.
	require.NoError(t, next.Register("push", &stubTransport{name: "push"}))
	assert.False(t, r.Supports("push"))
}
