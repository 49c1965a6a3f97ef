package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects an event-scoped logger for background executions.
// Dynamic fields only: event_id (generated if empty), trace_id/span_id when valid,
// plus caller-provided low-cardinality attributes such as "event" or "subscriber".
func WithEventContext(ctx context.Context, base observability.Logger, attrs map[string]string) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields := []observability.Field{observability.F("event_id", evtID)}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// Subscriber decorates a domoutbox.Subscriber so every handler runs with an
// event-scoped logger on its context.
type Subscriber struct {
	next domoutbox.Subscriber
	name string
	log  observability.Logger
}

func NewSubscriber(next domoutbox.Subscriber, name string, logger observability.Logger) *Subscriber {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Subscriber{next: next, name: name, log: logger}
}

func (s *Subscriber) Subscribe(eventName string, h domoutbox.Handler) {
	s.next.Subscribe(eventName, func(ctx context.Context, e domoutbox.Event) error {
		attrs := map[string]string{
			"event":      e.EventName(),
			"subscriber": s.name,
		}
		if k, ok := e.(domoutbox.Keyed); ok {
			attrs["event_key"] = k.EventKey()
		}
		return h(WithEventContext(ctx, s.log, attrs), e)
	})
}
