package transport_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifier/internal/notification"
	"github.com/shaharia-lab/notifier/internal/transport"
)

func TestTelegramTransport_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77}}`))
	}))
	defer srv.Close()

	tr := transport.NewTelegramTransport("123:abc", "42").WithBaseURL(srv.URL)
	sent, err := tr.Send(context.Background(), notification.Message{
		Kind: notification.KindChat, Channel: "chat/test", Subject: "Hello", Body: "World",
	})

	require.NoError(t, err)
	assert.Equal(t, "77", sent.MessageID)
	assert.Equal(t, "telegram", sent.Transport)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "Hello\n\nWorld", got["text"])
}

func TestTelegramTransport_RecipientAddressOverridesChat(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	tr := transport.NewTelegramTransport("t", "42").WithBaseURL(srv.URL)
	_, err := tr.Send(context.Background(), notification.Message{
		Kind: notification.KindChat, Subject: "Hi", Body: "Hi", RecipientAddress: "user-9",
	})

	require.NoError(t, err)
	assert.Equal(t, "user-9", got["chat_id"])
	assert.Equal(t, "Hi", got["text"])
}

func TestTelegramTransport_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tr := transport.NewTelegramTransport("t", "42").WithBaseURL(srv.URL)
	_, err := tr.Send(context.Background(), notification.Message{Kind: notification.KindChat, Subject: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramTransport_RejectsOtherKinds(t *testing.T) {
	tr := transport.NewTelegramTransport("t", "42")
	_, err := tr.Send(context.Background(), notification.Message{Kind: notification.KindEmail})
	assert.ErrorIs(t, err, transport.ErrUnsupportedMessage)
}

func TestTwilioTransport_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC1", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+48600123456", r.PostForm.Get("To"))
		assert.Equal(t, "+15005550006", r.PostForm.Get("From"))
		assert.Equal(t, "Testowy temat", r.PostForm.Get("Body"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123"}`))
	}))
	defer srv.Close()

	tr := transport.NewTwilioTransport("AC1", "secret", "+15005550006").WithBaseURL(srv.URL)
	sent, err := tr.Send(context.Background(), notification.Message{
		Kind: notification.KindSMS, Subject: "Testowy temat", Body: "Testowa wiadomość", RecipientAddress: "+48600123456",
	})

	require.NoError(t, err)
	assert.Equal(t, "SM123", sent.MessageID)
}

func TestTwilioTransport_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authenticate"}`))
	}))
	defer srv.Close()

	tr := transport.NewTwilioTransport("AC1", "bad", "+1").WithBaseURL(srv.URL)
	_, err := tr.Send(context.Background(), notification.Message{Kind: notification.KindSMS, RecipientAddress: "+2"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNtfyTransport_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts", r.URL.Path)
		assert.Equal(t, "Subject", r.Header.Get("Title"))
		assert.Equal(t, "Bearer tk", r.Header.Get("Authorization"))
		assert.Equal(t, "user-1", r.Header.Get("Tags"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "Body", string(body))
		_, _ = w.Write([]byte(`{"id":"abc123"}`))
	}))
	defer srv.Close()

	tr := transport.NewNtfyTransport(srv.URL+"/", "/alerts", "tk")
	sent, err := tr.Send(context.Background(), notification.Message{
		Kind: notification.KindPush, Subject: "Subject", Body: "Body", RecipientAddress: "user-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "abc123", sent.MessageID)
	assert.Equal(t, "ntfy", sent.Transport)
}

func TestNullAndFailingTransports(t *testing.T) {
	msg := notification.Message{Kind: notification.KindPush, Subject: "s"}

	sent, err := transport.NullTransport{}.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.NotEmpty(t, sent.MessageID)
	assert.Equal(t, msg, sent.Original)

	_, err = transport.FailingTransport{}.Send(context.Background(), msg)
	assert.ErrorIs(t, err, transport.ErrFailingTransport)
}

func TestSMTPTransport_SupportsEmailOnly(t *testing.T) {
	tr := transport.NewSMTPTransport(transport.SMTPConfig{Host: "localhost", Port: 2525, FromAddr: "noreply@example.com"})
	assert.True(t, tr.Supports(notification.Message{Kind: notification.KindEmail}))
	assert.False(t, tr.Supports(notification.Message{Kind: notification.KindSMS}))

	_, err := tr.Send(context.Background(), notification.Message{Kind: notification.KindSMS})
	assert.ErrorIs(t, err, transport.ErrUnsupportedMessage)
}

func TestSMTPTransport_InvalidRecipient(t *testing.T) {
	tr := transport.NewSMTPTransport(transport.SMTPConfig{Host: "localhost", Port: 2525, FromAddr: "noreply@example.com"})
	_, err := tr.Send(context.Background(), notification.Message{Kind: notification.KindEmail, RecipientAddress: "not an address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}
