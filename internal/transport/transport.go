// Package transport delivers rendered messages. A Transport wraps one
// provider (SMTP, Telegram, Twilio, ntfy, or the null/failing test
// providers); Failover and RoundRobin compose several of them. The Notifier
// fans a notification out to every recipient and channel and publishes one
// completion event per accepted message.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaharia-lab/notifier/internal/notification"
)

// ErrUnsupportedMessage is returned when a transport is asked to send a
// message kind it cannot handle.
var ErrUnsupportedMessage = errors.New("transport does not support this message")

// Transport is a delivery mechanism for one or more channel kinds.
type Transport interface {
	// Name identifies the transport in logs and completion events.
	Name() string
	// Supports reports whether the transport can deliver msg.
	Supports(msg notification.Message) bool
	// Send delivers msg and returns the provider acknowledgement.
	Send(ctx context.Context, msg notification.Message) (*SentMessage, error)
}

// SentMessage is the acknowledgement of an accepted message.
type SentMessage struct {
	Original  notification.Message
	MessageID string
	// Transport is the name of the provider that actually accepted the
	// message, which for composite transports is one of the members.
	Transport string
}

// DeliveryError reports a message that no provider could deliver.
type DeliveryError struct {
	Channel   string
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering %s message to %q: %v", e.Channel, e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
