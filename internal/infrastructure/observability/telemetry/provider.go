// Package telemetry installs the OpenTelemetry SDK tracer provider.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	exportTimeout = 10 * time.Second
	maxQueueSize  = 2048
)

type Options struct {
	ServiceName string
	Env         string
	// Endpoint is the OTLP/HTTP collector (host:port or URL). Empty disables export.
	Endpoint string
	// Exporter overrides the OTLP exporter; tests use it with tracetest.
	Exporter sdktrace.SpanExporter
}

// Setup installs W3C propagation and, when an exporter is configured, a batching
// SDK tracer provider as the global provider. The returned shutdown flushes and
// stops everything Setup started; it is safe to call when nothing was started.
func Setup(ctx context.Context, opts Options) (trace.TracerProvider, func(context.Context) error, error) {
	var shutdownFuncs []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporter := opts.Exporter
	if exporter == nil {
		if opts.Endpoint == "" {
			return otel.GetTracerProvider(), shutdown, nil
		}
		exp, err := otlptracehttp.New(ctx, endpointOption(opts.Endpoint))
		if err != nil {
			return nil, shutdown, fmt.Errorf("telemetry: otlp exporter: %w", err)
		}
		exporter = exp
	}

	res, err := resource.Merge(
		resource.Default(),
		// schemaless so it merges with the SDK default regardless of its schema version
		resource.NewSchemaless(
			semconv.ServiceName(opts.ServiceName),
			semconv.DeploymentEnvironment(opts.Env),
		),
	)
	if err != nil {
		return nil, shutdown, fmt.Errorf("telemetry: resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithExportTimeout(exportTimeout),
			sdktrace.WithMaxQueueSize(maxQueueSize),
		),
	)
	otel.SetTracerProvider(tp)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)

	return tp, shutdown, nil
}

// endpointOption accepts either a bare host:port or a full collector URL.
func endpointOption(endpoint string) otlptracehttp.Option {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return otlptracehttp.WithEndpointURL(endpoint)
	}
	return otlptracehttp.WithEndpoint(endpoint)
}
