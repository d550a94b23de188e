// Package logger provides the structured slog logger used across the
// notifier. All logs are written in JSON format.
//
// Log files are organized as:
//
//	<logDir>/system.log    application-level events, rotated by size
//
// The same records can be mirrored to stderr and exported over OTLP.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	systemLogFile = "system.log"
	maxSizeMB     = 20
	maxBackups    = 5
	maxAgeDays    = 28
)

type options struct {
	stderr        io.Writer
	otelProvider  log.LoggerProvider
	otelScopeName string
}

// Option configures NewSystemLogger.
type Option func(*options)

// WithStderr mirrors every record to w (normally os.Stderr).
func WithStderr(w io.Writer) Option {
	return func(o *options) { o.stderr = w }
}

// WithOTel also sends every record to the given OpenTelemetry log provider.
func WithOTel(provider log.LoggerProvider, scopeName string) Option {
	return func(o *options) {
		o.otelProvider = provider
		o.otelScopeName = scopeName
	}
}

// NewSystemLogger creates a JSON slog.Logger that writes to <logDir>/system.log.
// The directory is created if it does not exist. The returned closer flushes
// and closes the log file.
func NewSystemLogger(logDir string, level slog.Level, opts ...Option) (*slog.Logger, io.Closer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, systemLogFile),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewJSONHandler(file, handlerOpts)}
	if o.stderr != nil {
		handlers = append(handlers, slog.NewJSONHandler(o.stderr, handlerOpts))
	}
	if o.otelProvider != nil {
		handlers = append(handlers, otelslog.NewHandler(o.otelScopeName,
			otelslog.WithLoggerProvider(o.otelProvider)))
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), file, nil
	}
	return slog.New(fanout(handlers)), file, nil
}

// FromContext returns base annotated with the trace and span ids carried by
// ctx, or base itself when ctx has no valid span.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return base
	}
	return base.With(
		"trace_id", sc.TraceID().String(),
		"span_id", sc.SpanID().String(),
	)
}

// fanout sends each record to every handler that has its level enabled.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
