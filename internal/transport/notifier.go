package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shaharia-lab/notifier/internal/metrics"
	"github.com/shaharia-lab/notifier/internal/notification"
)

// EventPublisher is the publish side of the completion event stream.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// Notifier renders a notification for every recipient and hands each message
// to the transport registered for its channel.
type Notifier struct {
	registry  *Registry
	renderer  *notification.Renderer
	publisher EventPublisher
	logger    *slog.Logger
}

// NewNotifier creates a Notifier. The renderer should be built on the same
// registry so that only deliverable channels are rendered.
func NewNotifier(registry *Registry, renderer *notification.Renderer, publisher EventPublisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		registry:  registry,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
	}
}

// Send delivers n to every recipient on every applicable channel. A failed
// delivery does not stop the remaining ones; all failures are returned
// joined, each as a *DeliveryError. One completion event is published per
// accepted message.
func (nt *Notifier) Send(ctx context.Context, n *notification.Notification, recipients ...notification.Recipient) error {
	var errs []error
	for _, r := range recipients {
		for _, msg := range nt.renderer.Render(n, r) {
			if err := nt.deliver(ctx, msg); err != nil {
				target := msg.RecipientAddress
				if target == "" {
					target = r.ID
				}
				errs = append(errs, &DeliveryError{Channel: msg.Channel, Recipient: target, Err: err})
			}
		}
	}
	return errors.Join(errs...)
}

func (nt *Notifier) deliver(ctx context.Context, msg notification.Message) error {
	t, ok := nt.registry.Lookup(msg.Channel)
	if !ok {
		nt.logger.Debug("no transport for channel, skipping", "channel", msg.Channel)
		return nil
	}

	start := time.Now()
	sent, err := t.Send(ctx, msg)
	metrics.ObserveSend(t.Name(), err == nil, start)
	if err != nil {
		metrics.DeliveryErrors.WithLabelValues(msg.Channel).Inc()
		nt.logger.Error("delivery failed",
			"channel", msg.Channel,
			"transport", t.Name(),
			"error", err,
		)
		return err
	}

	nt.publisher.Publish(EventMessageSent, NewCompletionEvent(sent).Payload())
	return nil
}
