package httppresentation

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerRequestID = "X-Request-ID"
	headerTenantID  = "X-Tenant-ID"
	tracerName      = "minishop.http"
)

// ObservabilityMiddleware injects a request-scoped logger carrying request_id,
// tenant_id and the trace identifiers of the server span. X-Request-ID is generated
// when absent and echoed on the response.
func ObservabilityMiddleware(base observability.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = observability.NopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			rid := r.Header.Get(headerRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)

			fields := []observability.Field{observability.F("request_id", rid)}
			if tid := r.Header.Get(headerTenantID); tid != "" {
				fields = append(fields, observability.F("tenant_id", tid))
			}
			fields = append(fields, observability.TraceFields(ctx)...)

			ctx = logctx.With(ctx, base.With(fields...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withTrace extracts W3C trace context and opens a server span named after the route.
func withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		ctx, span := otel.Tracer(tracerName).Start(parentCtx,
			r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rec.status))
	})
}

// withAccessLog writes a single http_access line after the handler completes.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", rec.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withHTTPMetrics records http_requests_total and http_request_duration_seconds
// with the route template as label.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(rec.status)),
		}
		h.reqCounter.Add(1, labels...)
		h.durHistogram.Observe(time.Since(start).Seconds(), labels...)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

type routeKey struct{}

// contextWithRoute stores the route template so metrics and logs keep low-cardinality labels.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
