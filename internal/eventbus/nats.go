package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	natspkg "github.com/nats-io/nats.go"
)

// DefaultNATSSubject is the subject events are published on.
const DefaultNATSSubject = "notifier.events"

// natsDrainTimeout bounds how long Close waits for subscribers to finish the
// events already delivered to them.
const natsDrainTimeout = 10 * time.Second

// natsBus is an EventBus backed by a NATS connection. Subscribers join a
// queue group, so with several notifier processes each event is handled by
// exactly one of them.
type natsBus struct {
	nc      *natspkg.Conn
	subject string
	queue   string
	logger  *slog.Logger

	// closed is closed by the connection's ClosedHandler once the drain has
	// finished and no handler is running anymore.
	closed    chan struct{}
	closeOnce sync.Once
}

// NewNATS connects to url and returns a NATS-backed EventBus. queue may be
// empty, in which case every subscriber receives every event.
func NewNATS(url, subject, queue string, logger *slog.Logger) (EventBus, error) {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	if logger == nil {
		logger = slog.Default()
	}

	closed := make(chan struct{})
	var closedOnce sync.Once
	nc, err := natspkg.Connect(url,
		natspkg.Name("notifier"),
		natspkg.DrainTimeout(natsDrainTimeout),
		natspkg.ClosedHandler(func(*natspkg.Conn) {
			closedOnce.Do(func() { close(closed) })
		}),
		natspkg.ErrorHandler(func(_ *natspkg.Conn, _ *natspkg.Subscription, err error) {
			logger.Warn("eventbus: NATS async error", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %q: %w", url, err)
	}
	return &natsBus{nc: nc, subject: subject, queue: queue, logger: logger, closed: closed}, nil
}

func (b *natsBus) Publish(eventType string, payload map[string]string) {
	data, err := json.Marshal(Event{Type: eventType, Timestamp: time.Now(), Payload: payload})
	if err != nil {
		b.logger.Error("eventbus: encoding event", "event", eventType, "error", err)
		return
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		if b.shuttingDown() {
			b.logger.Warn("eventbus: publish after close, dropping event", "event", eventType)
			return
		}
		b.logger.Error("eventbus: publishing to NATS", "event", eventType, "error", err)
	}
}

func (b *natsBus) Subscribe(listener Listener) Subscription {
	handler := func(msg *natspkg.Msg) {
		var e Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			b.logger.Warn("eventbus: dropping undecodable NATS message", "error", err)
			return
		}
		safeCall(b.logger, listener, e)
	}

	var (
		sub *natspkg.Subscription
		err error
	)
	if b.queue != "" {
		sub, err = b.nc.QueueSubscribe(b.subject, b.queue, handler)
	} else {
		sub, err = b.nc.Subscribe(b.subject, handler)
	}
	if err != nil {
		b.logger.Error("eventbus: subscribing to NATS", "subject", b.subject, "error", err)
		return subscriptionFunc(func() {})
	}

	var once sync.Once
	return subscriptionFunc(func() {
		once.Do(func() {
			// The drain in Close already removed the interest.
			if b.shuttingDown() {
				return
			}
			if err := sub.Unsubscribe(); err != nil &&
				!errors.Is(err, natspkg.ErrBadSubscription) &&
				!errors.Is(err, natspkg.ErrConnectionClosed) {
				b.logger.Warn("eventbus: unsubscribing from NATS", "error", err)
			}
		})
	})
}

// Close waits until every event published through this bus has been handled
// by the local subscribers, then closes the connection.
func (b *natsBus) Close() {
	b.closeOnce.Do(func() {
		// The PONG arrives after every message the server routed back to
		// our subscriptions, so they are all queued locally once Flush returns.
		if err := b.nc.Flush(); err != nil {
			b.logger.Warn("eventbus: flushing NATS connection", "error", err)
		}
		if err := b.nc.Drain(); err != nil {
			b.logger.Warn("eventbus: draining NATS connection", "error", err)
			b.nc.Close()
		}

		select {
		case <-b.closed:
		case <-time.After(natsDrainTimeout + time.Second):
			b.logger.Warn("eventbus: timed out draining NATS connection")
			b.nc.Close()
		}
	})
}

func (b *natsBus) shuttingDown() bool {
	return b.nc.IsDraining() || b.nc.IsClosed()
}
