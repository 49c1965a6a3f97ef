package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns a Tracer named name from tp. A nil tp uses the global provider,
// which is a no-op until telemetry.Setup installs an SDK provider.
func New(tp trace.TracerProvider, name string) observability.Tracer {
	if name == "" {
		name = "minishop-orders"
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &tracer{t: tp.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
