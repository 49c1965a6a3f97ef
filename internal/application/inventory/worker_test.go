package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dominv "github.com/Zhima-Mochi/minishop-orders/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

type captureSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *captureSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = map[string]domoutbox.Handler{}
	}
	s.handlers[name] = h
}

type stubUseCase struct {
	got []domorder.OrderCreatedEvent
	res *LowStockResult
	err error
}

func (s *stubUseCase) Execute(_ context.Context, e domorder.OrderCreatedEvent) (*LowStockResult, error) {
	s.got = append(s.got, e)
	return s.res, s.err
}

type otherEvent struct{}

func (otherEvent) EventName() string { return "order.created" }

func TestWorker_HandlesOrderCreated(t *testing.T) {
	tm := newTelemetry(t)
	sub := &captureSubscriber{}
	uc := &stubUseCase{res: &LowStockResult{Levels: []dominv.Level{{ProductID: "p1"}}}}
	NewWorker(sub, uc, tm.tel).Start()

	h, ok := sub.handlers["order.created"]
	require.True(t, ok)

	require.NoError(t, h(context.Background(), orderCreated()))
	require.Len(t, uc.got, 1)
	assert.Equal(t, "o1", uc.got[0].OrderID)

	done := tm.logs.FilterMessage("use_case_done").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, "inventory.worker.order_created", fields["use_case"])
	assert.Equal(t, int64(1), fields["low_stock_products"])
}

func TestWorker_IgnoresForeignPayload(t *testing.T) {
	tm := newTelemetry(t)
	sub := &captureSubscriber{}
	uc := &stubUseCase{}
	NewWorker(sub, uc, tm.tel).Start()

	require.NoError(t, sub.handlers["order.created"](context.Background(), otherEvent{}))
	assert.Empty(t, uc.got)
	assert.Equal(t, 1.0, tm.counter(t, observability.MUsecaseRequests,
		map[string]string{"use_case": "inventory.worker.order_created", "outcome": "ignored"}))
}

func TestWorker_PropagatesFailure(t *testing.T) {
	sub := &captureSubscriber{}
	boom := errors.New("boom")
	NewWorker(sub, &stubUseCase{err: boom}, nil).Start()

	err := sub.handlers["order.created"](context.Background(), orderCreated())
	assert.ErrorIs(t, err, boom)
}

func TestWorker_StartWithoutSubscriber(t *testing.T) {
	assert.NotPanics(t, func() { NewWorker(nil, &stubUseCase{}, nil).Start() })
}
