package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/notifier/internal/eventbus"
	"github.com/shaharia-lab/notifier/internal/logger"
	"github.com/shaharia-lab/notifier/internal/metrics"
	"github.com/shaharia-lab/notifier/internal/notification"
	"github.com/shaharia-lab/notifier/internal/transport"
)

const instrumentationScope = "github.com/shaharia-lab/notifier/internal/service"

// Log record names emitted by the service.
const (
	LogScheduled = "Notification scheduled"
	LogSent      = "Notification sent"
)

// Sender is the transport layer: it fans a notification out to every
// recipient and channel.
type Sender interface {
	Send(ctx context.Context, n *notification.Notification, recipients ...notification.Recipient) error
}

// NotificationService dispatches notifications and logs what was scheduled
// and what the transports accepted.
type NotificationService interface {
	// Send hands n to the transport layer and logs one "scheduled" record per
	// recipient. Transport failures are returned, never swallowed.
	Send(ctx context.Context, n *notification.Notification, recipients ...notification.Recipient) error
	// Close detaches the service from the completion event stream.
	Close()
}

// notificationServiceImpl implements NotificationService.
type notificationServiceImpl struct {
	sender       Sender
	logger       *slog.Logger
	tracer       trace.Tracer
	duration     metric.Float64Histogram
	subscription eventbus.Subscription
	closeOnce    sync.Once
}

// NewNotificationService creates a NotificationService and subscribes it to
// bus once, for its whole lifetime.
func NewNotificationService(sender Sender, bus eventbus.EventBus, logger *slog.Logger) NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &notificationServiceImpl{
		sender: sender,
		logger: logger,
		tracer: otel.Tracer(instrumentationScope),
	}
	duration, err := otel.Meter(instrumentationScope).Float64Histogram("notifier.dispatch.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of notification dispatch calls."),
	)
	if err != nil {
		logger.Warn("failed to create dispatch duration histogram", "error", err)
		duration = noop.Float64Histogram{}
	}
	s.duration = duration
	s.subscription = bus.Subscribe(s.onEvent)
	return s
}

// Send forwards n and recipients to the transport layer in a single call,
// then logs a "scheduled" record for every recipient in order. Records
// document the attempt and are written whether or not delivery succeeded.
func (s *notificationServiceImpl) Send(ctx context.Context, n *notification.Notification, recipients ...notification.Recipient) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.Send", trace.WithAttributes(
		attribute.String("notification.subject", n.Subject()),
		attribute.StringSlice("notification.channels", n.Channels()),
		attribute.Int("notification.recipients", len(recipients)),
	))
	defer span.End()

	start := time.Now()
	sendErr := s.sender.Send(ctx, n, recipients...)
	s.duration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Bool("success", sendErr == nil)))
	if sendErr != nil {
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, "delivery failed")
	}

	log := logger.FromContext(ctx, s.logger)
	for _, r := range recipients {
		logScheduled(ctx, log, n, r)
	}
	return sendErr
}

func logScheduled(ctx context.Context, log *slog.Logger, n *notification.Notification, r notification.Recipient) {
	attrs := []any{
		"subject", n.Subject(),
		"content", n.Content(),
		"channels", n.ChannelsFor(r),
	}
	if r.HasPhone() {
		attrs = append(attrs, "recipientPhone", r.Phone)
	}
	if r.HasEmail() {
		attrs = append(attrs, "recipientEmail", r.Email)
	}
	log.InfoContext(ctx, LogScheduled, attrs...)
	metrics.NotificationsScheduled.Inc()
}

// onEvent is the single completion listener registered at construction. It
// runs on event bus workers, concurrently with Send.
func (s *notificationServiceImpl) onEvent(e eventbus.Event) {
	if e.Type != transport.EventMessageSent {
		return
	}
	ev := transport.CompletionEventFromPayload(e.Payload)
	s.logger.Info(LogSent,
		"id", ev.MessageID,
		"transport", ev.Transport,
		"subject", ev.Subject,
		"recipientId", ev.RecipientID,
	)
	metrics.MessagesSent.WithLabelValues(ev.Transport).Inc()
}

// Close unsubscribes from the event bus. It is safe to call more than once.
func (s *notificationServiceImpl) Close() {
	s.closeOnce.Do(s.subscription.Unsubscribe)
}
