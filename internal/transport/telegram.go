package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shaharia-lab/notifier/internal/notification"
)

const telegramAPIBase = "https://api.telegram.org"

// telegramResponse wraps the standard Telegram Bot API response envelope.
type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// TelegramTransport posts chat messages through the Telegram Bot API.
type TelegramTransport struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

// NewTelegramTransport creates a transport for the bot identified by token.
// chatID is the default destination; a non-empty recipient address wins.
func NewTelegramTransport(token, chatID string) *TelegramTransport {
	return &TelegramTransport{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPIBase,
		client:  defaultHTTPClient(),
	}
}

// WithBaseURL points the transport at another API host, e.g. a test server.
func (t *TelegramTransport) WithBaseURL(u string) *TelegramTransport {
	t.baseURL = u
	return t
}

// Name returns the transport identifier.
func (t *TelegramTransport) Name() string { return "telegram" }

// Supports accepts chat messages only.
func (t *TelegramTransport) Supports(msg notification.Message) bool {
	return msg.Kind == notification.KindChat
}

// Send calls sendMessage and returns the Telegram message id.
func (t *TelegramTransport) Send(ctx context.Context, msg notification.Message) (*SentMessage, error) {
	if !t.Supports(msg) {
		return nil, ErrUnsupportedMessage
	}
	chatID := t.chatID
	if msg.RecipientAddress != "" {
		chatID = msg.RecipientAddress
	}
	if chatID == "" {
		return nil, errors.New("telegram: no chat id configured")
	}

	body, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    chatText(msg.Subject, msg.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp telegramResponse
	if err := doJSON(t.client, req, &resp); err != nil {
		return nil, fmt.Errorf("telegram sendMessage: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("telegram API error: %s", resp.Description)
	}
	return &SentMessage{
		Original:  msg,
		MessageID: strconv.FormatInt(resp.Result.MessageID, 10),
		Transport: t.Name(),
	}, nil
}
