package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shaharia-lab/notifier/internal/notification"
)

const ntfyDefaultBase = "https://ntfy.sh"

// NtfyTransport publishes push notifications to an ntfy topic.
type NtfyTransport struct {
	baseURL string
	topic   string
	token   string
	client  *http.Client
}

// NewNtfyTransport creates a push transport publishing to topic on baseURL.
// token is optional.
func NewNtfyTransport(baseURL, topic, token string) *NtfyTransport {
	if baseURL == "" {
		baseURL = ntfyDefaultBase
	}
	return &NtfyTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		topic:   strings.Trim(topic, "/"),
		token:   token,
		client:  defaultHTTPClient(),
	}
}

// Name returns the transport identifier.
func (t *NtfyTransport) Name() string { return "ntfy" }

// Supports accepts push messages only.
func (t *NtfyTransport) Supports(msg notification.Message) bool {
	return msg.Kind == notification.KindPush
}

// Send publishes msg and returns the ntfy message id.
func (t *NtfyTransport) Send(ctx context.Context, msg notification.Message) (*SentMessage, error) {
	if !t.Supports(msg) {
		return nil, ErrUnsupportedMessage
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/"+t.topic, strings.NewReader(msg.Body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Title", msg.Subject)
	if msg.RecipientAddress != "" {
		req.Header.Set("Tags", msg.RecipientAddress)
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := doJSON(t.client, req, &resp); err != nil {
		return nil, fmt.Errorf("ntfy: %w", err)
	}
	return &SentMessage{Original: msg, MessageID: resp.ID, Transport: t.Name()}, nil
}
