package transport

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/shaharia-lab/notifier/internal/notification"
)

// NullTransport accepts every message and delivers nothing. It is used for
// "null://" DSNs in development and tests.
type NullTransport struct{}

// Name returns the transport identifier.
func (NullTransport) Name() string { return "null" }

// Supports accepts every kind.
func (NullTransport) Supports(notification.Message) bool { return true }

// Send acknowledges msg with a fresh message ID.
func (NullTransport) Send(ctx context.Context, msg notification.Message) (*SentMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &SentMessage{Original: msg, MessageID: uuid.NewString(), Transport: "null"}, nil
}

// ErrFailingTransport is returned by FailingTransport on every send.
var ErrFailingTransport = errors.New("failing transport always fails")

// FailingTransport rejects every message. Paired with a working transport
// behind "||" it exercises failover.
type FailingTransport struct{}

// Name returns the transport identifier.
func (FailingTransport) Name() string { return "failing" }

// Supports accepts every kind.
func (FailingTransport) Supports(notification.Message) bool { return true }

// Send always fails.
func (FailingTransport) Send(context.Context, notification.Message) (*SentMessage, error) {
	return nil, ErrFailingTransport
}
