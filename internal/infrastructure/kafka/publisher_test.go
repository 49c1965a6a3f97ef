package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type keyedEvent struct {
	OrderID string `json:"order_id"`
}

func (keyedEvent) EventName() string  { return "order.created" }
func (e keyedEvent) EventKey() string { return e.OrderID }

type plainEvent struct{}

func (plainEvent) EventName() string { return "plain" }

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishWritesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w, "orders.created", nil)

	require.NoError(t, p.Publish(context.Background(), keyedEvent{OrderID: "o-1"}))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "o-1", string(msg.Key))
	assert.Equal(t, "order.created", header(msg, headerEventName))

	var decoded keyedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "o-1", decoded.OrderID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishUnkeyedEvent(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewPublisher(w, "t", nil).Publish(context.Background(), plainEvent{}))
	assert.Nil(t, w.msgs[0].Key)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	err := NewPublisher(&fakeWriter{err: boom}, "t", nil).Publish(context.Background(), plainEvent{})
	assert.ErrorIs(t, err, boom)
}

func TestMessageCarriesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	msg, err := Message(ctx, plainEvent{})
	require.NoError(t, err)
	assert.Contains(t, header(msg, "traceparent"), sc.TraceID().String())
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"k1:9092"}, "orders.created")
	assert.Equal(t, "orders.created", w.Topic)
	assert.Equal(t, "k1:9092", w.Addr.String())
}

type mapSubscriber map[string]domoutbox.Handler

func (m mapSubscriber) Subscribe(name string, h domoutbox.Handler) { m[name] = h }

func TestRelayForwardsSubscribedEvents(t *testing.T) {
	w := &fakeWriter{}
	sub := mapSubscriber{}
	NewPublisher(w, "orders.created", nil).Relay(sub, "order.created", "inventory.low_stock")

	require.Contains(t, sub, "order.created")
	require.Contains(t, sub, "inventory.low_stock")
	require.NoError(t, sub["order.created"](context.Background(), keyedEvent{OrderID: "o-9"}))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "o-9", string(w.msgs[0].Key))
}
