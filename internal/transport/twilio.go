package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shaharia-lab/notifier/internal/notification"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioTransport sends SMS through the Twilio Messages API.
type TwilioTransport struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// NewTwilioTransport creates an SMS transport for the given account.
func NewTwilioTransport(accountSID, authToken, from string) *TwilioTransport {
	return &TwilioTransport{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioAPIBase,
		client:     defaultHTTPClient(),
	}
}

// WithBaseURL points the transport at another API host, e.g. a test server.
func (t *TwilioTransport) WithBaseURL(u string) *TwilioTransport {
	t.baseURL = u
	return t
}

// Name returns the transport identifier.
func (t *TwilioTransport) Name() string { return "twilio" }

// Supports accepts SMS messages only.
func (t *TwilioTransport) Supports(msg notification.Message) bool {
	return msg.Kind == notification.KindSMS
}

// Send creates a message resource and returns its SID.
func (t *TwilioTransport) Send(ctx context.Context, msg notification.Message) (*SentMessage, error) {
	if !t.Supports(msg) {
		return nil, ErrUnsupportedMessage
	}
	form := url.Values{}
	form.Set("To", msg.RecipientAddress)
	form.Set("From", t.from)
	// SMS carries the subject only, as a short text.
	form.Set("Body", msg.Subject)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	var resp struct {
		SID string `json:"sid"`
	}
	if err := doJSON(t.client, req, &resp); err != nil {
		return nil, fmt.Errorf("twilio: %w", err)
	}
	if resp.SID == "" {
		return nil, errors.New("twilio: response carried no message sid")
	}
	return &SentMessage{Original: msg, MessageID: resp.SID, Transport: t.Name()}, nil
}
