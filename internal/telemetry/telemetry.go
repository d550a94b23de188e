// Package telemetry configures OpenTelemetry tracing, metrics and log export.
//
// Metrics are always exposed through the Prometheus registry so they appear
// on /metrics next to the native counters. Traces, metrics and logs are
// additionally exported over OTLP/gRPC when an endpoint is configured.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

// Config controls telemetry setup.
type Config struct {
	// Endpoint is the OTLP/gRPC collector, as host:port or a URL. Empty
	// disables OTLP export.
	Endpoint    string
	ServiceName string
	Version     string
	// Registerer receives the OpenTelemetry metrics bridge. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Providers holds the SDK providers created by Setup.
type Providers struct {
	// Logs is nil when OTLP export is disabled.
	Logs    *sdklog.LoggerProvider
	Meters  *sdkmetric.MeterProvider
	Tracers *sdktrace.TracerProvider

	shutdown []func(context.Context) error
}

// Shutdown flushes and stops every provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdown) - 1; i >= 0; i-- {
		if err := p.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup creates the providers and installs them as the OpenTelemetry globals.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "notifier"
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
	)
	p := &Providers{}

	promExporter, err := otelprom.New(otelprom.WithRegisterer(cfg.Registerer))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus metric exporter: %w", err)
	}
	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res), sdkmetric.WithReader(promExporter)}
	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if cfg.Endpoint != "" {
		dial := grpc.WithUserAgent(cfg.ServiceName + "/" + cfg.Version)

		traceExporter, err := otlptracegrpc.New(ctx, traceEndpoint(cfg.Endpoint, dial)...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(traceExporter))

		metricExporter, err := otlpmetricgrpc.New(ctx, metricEndpoint(cfg.Endpoint, dial)...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
		}
		meterOpts = append(meterOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))

		logExporter, err := otlploggrpc.New(ctx, logEndpoint(cfg.Endpoint, dial)...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP log exporter: %w", err)
		}
		p.Logs = sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		)
		global.SetLoggerProvider(p.Logs)
		p.shutdown = append(p.shutdown, p.Logs.Shutdown)
	}

	p.Tracers = sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(p.Tracers)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	p.shutdown = append(p.shutdown, p.Tracers.Shutdown)

	p.Meters = sdkmetric.NewMeterProvider(meterOpts...)
	otel.SetMeterProvider(p.Meters)
	p.shutdown = append(p.shutdown, p.Meters.Shutdown)

	return p, nil
}

// isURL distinguishes "http://host:4317" from a bare host:port, which is
// treated as a local collector without TLS.
func isURL(endpoint string) bool { return strings.Contains(endpoint, "://") }

func traceEndpoint(endpoint string, dial grpc.DialOption) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithDialOption(dial)}
	if isURL(endpoint) {
		return append(opts, otlptracegrpc.WithEndpointURL(endpoint))
	}
	return append(opts, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
}

func metricEndpoint(endpoint string, dial grpc.DialOption) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithDialOption(dial)}
	if isURL(endpoint) {
		return append(opts, otlpmetricgrpc.WithEndpointURL(endpoint))
	}
	return append(opts, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
}

func logEndpoint(endpoint string, dial grpc.DialOption) []otlploggrpc.Option {
	opts := []otlploggrpc.Option{otlploggrpc.WithDialOption(dial)}
	if isURL(endpoint) {
		return append(opts, otlploggrpc.WithEndpointURL(endpoint))
	}
	return append(opts, otlploggrpc.WithEndpoint(endpoint), otlploggrpc.WithInsecure())
}
