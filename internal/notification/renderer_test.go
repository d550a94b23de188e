package notification_test

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifier/internal/notification"
)

// --- stubs ---

type stubChannels struct {
	supported []string
	defaults  []string
}

func (s stubChannels) Supports(channel string) bool { return slices.Contains(s.supported, channel) }
func (s stubChannels) DefaultChannels() []string    { return s.defaults }

func allChannels(ids ...string) stubChannels {
	return stubChannels{supported: ids, defaults: ids}
}

type mapTranslator struct {
	catalog map[string]map[string]string // locale -> key -> text
	calls   []string
}

func (m *mapTranslator) Translate(key string, params map[string]string, domain, locale string) string {
	m.calls = append(m.calls, fmt.Sprintf("%s|%s|%s|%v", key, domain, locale, params))
	text, ok := m.catalog[locale][key]
	if !ok {
		text = key
	}
	for k, v := range params {
		text = strings.ReplaceAll(text, k, v)
	}
	return text
}

func newTranslator() *mapTranslator {
	return &mapTranslator{catalog: map[string]map[string]string{
		"pl": {
			"welcome.subject": "Testowy temat",
			"Test message":    "Testowa wiadomość",
			"hello":           "Cześć %name%",
		},
		"lt": {
			"welcome.subject": "Bandymo pranešimo tema",
		},
	}}
}

// --- tests ---

func TestRender_EmailOnlyRecipient(t *testing.T) {
	rd := notification.NewRenderer(allChannels("email", "sms"), nil, nil)
	n := notification.New("Test subject", []string{"email", "sms"}, notification.WithContent("Test message"))

	msgs := rd.Render(n, notification.Recipient{Email: "a@x.org"})

	require.Len(t, msgs, 1)
	assert.Equal(t, notification.KindEmail, msgs[0].Kind)
	assert.Equal(t, "a@x.org", msgs[0].RecipientAddress)
	assert.Equal(t, "Test subject", msgs[0].Subject)
	assert.Equal(t, "Test message", msgs[0].Body)
}

func TestRender_SkipsUnsupportedChannels(t *testing.T) {
	rd := notification.NewRenderer(allChannels("chat/test"), nil, nil)
	n := notification.New("s", []string{"sms/missing", "chat/test", "fax"})

	msgs := rd.Render(n, notification.Recipient{Phone: "+48600123456"})

	require.Len(t, msgs, 1)
	assert.Equal(t, "chat/test", msgs[0].Channel)
	assert.Equal(t, "test", msgs[0].Transport)
	assert.Equal(t, notification.KindChat, msgs[0].Kind)
}

func TestRender_EmptyChannelsUsesDefaults(t *testing.T) {
	set := stubChannels{supported: []string{"email", "sms", "push"}, defaults: []string{"email", "sms", "push"}}
	rd := notification.NewRenderer(set, nil, nil)

	msgs := rd.Render(notification.New("s", nil), notification.Recipient{ID: "u-1", Phone: "+48600123456"})

	require.Len(t, msgs, 2)
	assert.Equal(t, notification.KindSMS, msgs[0].Kind)
	assert.Equal(t, "+48600123456", msgs[0].RecipientAddress)
	assert.Equal(t, notification.KindPush, msgs[1].Kind)
	assert.Equal(t, "u-1", msgs[1].RecipientAddress)
}

func TestRender_TranslatesForLocaleAwareRecipients(t *testing.T) {
	tr := newTranslator()
	rd := notification.NewRenderer(allChannels("email"), tr, nil)
	n := notification.New("welcome.subject", []string{"email"}, notification.WithContent("Test message"))

	pl := rd.Render(n, notification.Recipient{Email: "a@x.org", Locale: "pl"})
	lt := rd.Render(n, notification.Recipient{Email: "b@x.org", Locale: "lt"})

	require.Len(t, pl, 1)
	require.Len(t, lt, 1)
	assert.Equal(t, "Testowy temat", pl[0].Subject)
	assert.Equal(t, "Testowa wiadomość", pl[0].Body)
	assert.Equal(t, "Bandymo pranešimo tema", lt[0].Subject)
	// Missing translation falls back to the key.
	assert.Equal(t, "Test message", lt[0].Body)
}

func TestRender_NoLocaleIsVerbatim(t *testing.T) {
	tr := newTranslator()
	rd := notification.NewRenderer(allChannels("email"), tr, nil)
	n := notification.New("welcome.subject", []string{"email"}, notification.WithContent("Test message"))

	msgs := rd.Render(n, notification.Recipient{Email: "a@x.org"})

	require.Len(t, msgs, 1)
	assert.Equal(t, "welcome.subject", msgs[0].Subject)
	assert.Equal(t, "Test message", msgs[0].Body)
	assert.Empty(t, tr.calls)
}

func TestRender_SubjectOnlyNotificationUsesSubjectAsBody(t *testing.T) {
	tr := newTranslator()
	rd := notification.NewRenderer(allChannels("email"), tr, nil)
	n := notification.New("welcome.subject", []string{"email"})

	plain := rd.Render(n, notification.Recipient{Email: "a@x.org"})
	require.Len(t, plain, 1)
	assert.Equal(t, "welcome.subject", plain[0].Body)

	pl := rd.Render(n, notification.Recipient{Email: "a@x.org", Locale: "pl"})
	require.Len(t, pl, 1)
	assert.Equal(t, "Testowy temat", pl[0].Subject)
	assert.Equal(t, "Testowy temat", pl[0].Body)
}

func TestRender_ParametersDoNotLeakIntoContent(t *testing.T) {
	tr := newTranslator()
	rd := notification.NewRenderer(allChannels("email"), tr, nil)
	n := notification.New("hello", []string{"email"},
		notification.WithContent("hello"),
		notification.WithSubjectParameters(map[string]string{"%name%": "Ala"}),
	)

	msgs := rd.Render(n, notification.Recipient{Email: "a@x.org", Locale: "pl"})

	require.Len(t, msgs, 1)
	assert.Equal(t, "Cześć Ala", msgs[0].Subject)
	assert.Equal(t, "Cześć %name%", msgs[0].Body)
}

func TestRender_ChannelPolicyOverridesDeclared(t *testing.T) {
	rd := notification.NewRenderer(allChannels("email", "sms"), nil, nil)
	n := notification.New("s", []string{"email"}, notification.WithChannelPolicy(func(r notification.Recipient) []string {
		if r.HasPhone() {
			return []string{"sms"}
		}
		return []string{"email"}
	}))

	msgs := rd.Render(n, notification.Recipient{Email: "a@x.org", Phone: "+48600123456"})

	require.Len(t, msgs, 1)
	assert.Equal(t, notification.KindSMS, msgs[0].Kind)
}

func TestRender_IsIdempotent(t *testing.T) {
	rd := notification.NewRenderer(allChannels("email", "sms/test", "chat/test"), newTranslator(), nil)
	n := notification.New("welcome.subject", []string{"email", "sms/test", "chat/test"},
		notification.WithContent("Test message"))
	r := notification.Recipient{ID: "u-1", Email: "a@x.org", Phone: "+48600123456", Locale: "pl"}

	first := rd.Render(n, r)
	second := rd.Render(n, r)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
}
