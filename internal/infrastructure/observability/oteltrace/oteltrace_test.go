package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartRecordsSpanWithAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	_, span := New(tp, "test").Start(context.Background(), "UC.CreateOrder", attribute.String("use_case", "order.create"))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "UC.CreateOrder", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("use_case", "order.create"))
}
