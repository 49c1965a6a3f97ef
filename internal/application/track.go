package application

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	SpanPrefix = "UC."

	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Instruments holds the per-service logger, tracer and RED instruments of a use case.
type Instruments struct {
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(tel observability.Observability, service string) Instruments {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return Instruments{
		log:          tel.Logger().With(observability.F("service", service)),
		tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// Count records a request outcome that never reached Start, such as an ignored event.
func (i Instruments) Count(useCase, outcome string) {
	i.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

// Publish emits e best-effort within a short deadline and records it as an external
// call to the outbox under endpoint. A nil publisher is a no-op.
func (i Instruments) Publish(ctx context.Context, p domoutbox.Publisher, e domoutbox.Event, endpoint string) error {
	if p == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	err := p.Publish(pubCtx, e)
	if err != nil {
		outcome = "error"
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}

	i.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	i.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)
	return err
}

// Run tracks one use case execution. Set the outcome with Fail before calling End.
type Run struct {
	ctx     context.Context
	useCase string
	span    trace.Span
	log     observability.Logger
	start   time.Time
	inst    Instruments
	outcome string
	status  string
	fields  []observability.Field
}

// Start opens a UC.<spanName> span and a logger bound to use_case.
func (i Instruments) Start(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	logger := logctx.FromOr(ctx, i.log).With(observability.F("use_case", useCase))
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := i.tracer.Start(ctx, SpanPrefix+spanName, attrs...)
	return ctx, &Run{
		ctx:     ctx,
		useCase: useCase,
		span:    span,
		log:     logger,
		start:   time.Now(),
		inst:    i,
		outcome: "success",
		status:  "OK",
	}
}

func (r *Run) Logger() observability.Logger { return r.log }
func (r *Run) Span() trace.Span             { return r.span }

// With binds fields onto the run logger, including the final use_case_done line.
func (r *Run) With(fields ...observability.Field) observability.Logger {
	r.log = r.log.With(fields...)
	return r.log
}

// Fail marks the run as failed with a status code such as NOT_FOUND.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

func (r *Run) Status(status string) { r.status = status }

// Add appends fields to the final use_case_done log line.
func (r *Run) Add(fields ...observability.Field) { r.fields = append(r.fields, fields...) }

// End records metrics, closes the span and writes the use_case_done line.
func (r *Run) End(err error) {
	lat := time.Since(r.start).Seconds()

	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, r.status)
	} else {
		r.span.SetStatus(codes.Ok, r.status)
	}
	r.span.End()

	r.inst.Count(r.useCase, r.outcome)
	r.inst.durHistogram.Observe(lat, observability.L("use_case", r.useCase))

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}
	fields = append(fields, observability.TraceFields(r.ctx)...)
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.log.Info("use_case_done", fields...)
}
