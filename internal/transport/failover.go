package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shaharia-lab/notifier/internal/metrics"
	"github.com/shaharia-lab/notifier/internal/notification"
)

// ErrTransportExhausted is wrapped by the error returned when every member
// of a composite transport failed.
var ErrTransportExhausted = errors.New("all transports failed")

// Failover tries its members in declared order; the first success wins.
type Failover struct {
	transports []Transport
	logger     *slog.Logger
}

// NewFailover composes transports into a failover chain.
func NewFailover(logger *slog.Logger, transports ...Transport) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{transports: transports, logger: logger}
}

// Name joins the member names the way they are written in a DSN.
func (f *Failover) Name() string { return joinNames(f.transports, " || ") }

// Supports reports whether any member supports msg.
func (f *Failover) Supports(msg notification.Message) bool {
	return anySupports(f.transports, msg)
}

// Send tries each supporting member in order.
func (f *Failover) Send(ctx context.Context, msg notification.Message) (*SentMessage, error) {
	return sendInOrder(ctx, f.logger, f.transports, msg)
}

// RoundRobin spreads messages over its members, starting each send at the
// next member and falling through to the others on failure.
type RoundRobin struct {
	transports []Transport
	next       atomic.Uint64
	logger     *slog.Logger
}

// NewRoundRobin composes transports into a round-robin group.
func NewRoundRobin(logger *slog.Logger, transports ...Transport) *RoundRobin {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoundRobin{transports: transports, logger: logger}
}

// Name joins the member names the way they are written in a DSN.
func (r *RoundRobin) Name() string { return joinNames(r.transports, " && ") }

// Supports reports whether any member supports msg.
func (r *RoundRobin) Supports(msg notification.Message) bool {
	return anySupports(r.transports, msg)
}

// Send starts at the next member in rotation.
func (r *RoundRobin) Send(ctx context.Context, msg notification.Message) (*SentMessage, error) {
	n := len(r.transports)
	if n == 0 {
		return nil, fmt.Errorf("round robin: %w", ErrTransportExhausted)
	}
	start := int((r.next.Add(1) - 1) % uint64(n))
	ordered := make([]Transport, 0, n)
	ordered = append(ordered, r.transports[start:]...)
	ordered = append(ordered, r.transports[:start]...)
	return sendInOrder(ctx, r.logger, ordered, msg)
}

func sendInOrder(ctx context.Context, logger *slog.Logger, transports []Transport, msg notification.Message) (*SentMessage, error) {
	var errs []error
	for _, t := range transports {
		if !t.Supports(msg) {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		sent, err := t.Send(ctx, msg)
		metrics.ObserveSend(t.Name(), err == nil, start)
		if err == nil {
			return sent, nil
		}
		metrics.TransportFailures.WithLabelValues(t.Name()).Inc()
		logger.Warn("transport failed, trying next",
			"transport", t.Name(),
			"channel", msg.Channel,
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
	}
	if len(errs) == 0 {
		return nil, ErrUnsupportedMessage
	}
	return nil, fmt.Errorf("%w: %w", ErrTransportExhausted, errors.Join(errs...))
}

func anySupports(transports []Transport, msg notification.Message) bool {
	for _, t := range transports {
		if t.Supports(msg) {
			return true
		}
	}
	return false
}

func joinNames(transports []Transport, sep string) string {
	names := make([]string, len(transports))
	for i, t := range transports {
		names[i] = t.Name()
	}
	return strings.Join(names, sep)
}
