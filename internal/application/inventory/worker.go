package inventory

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	workerService       = "inventory_worker"
	useCaseOrderCreated = "inventory.worker.order_created"
)

// Worker feeds order.created events into the low-stock check.
type Worker struct {
	subscriber domoutbox.Subscriber
	useCase    application.UseCase[domorder.OrderCreatedEvent, *LowStockResult]
	inst       application.Instruments
}

func NewWorker(
	subscriber domoutbox.Subscriber,
	useCase application.UseCase[domorder.OrderCreatedEvent, *LowStockResult],
	tel observability.Observability,
) *Worker {
	return &Worker{
		subscriber: subscriber,
		useCase:    useCase,
		inst:       application.NewInstruments(tel, workerService),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.useCase == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderCreatedEvent{}.EventName(), w.handleOrderCreated)
}

func (w *Worker) handleOrderCreated(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.OrderCreatedEvent)
	if !ok {
		w.inst.Count(useCaseOrderCreated, "ignored")
		return nil
	}

	ctx, run := w.inst.Start(ctx, useCaseOrderCreated, "OrderCreated",
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.OrderID),
	)
	ctx = logctx.With(ctx, run.With(
		observability.F("event", e.EventName()),
		observability.F("order_id", evt.OrderID),
	))
	var lowStock int
	defer func() {
		run.Add(observability.F("low_stock_products", lowStock))
		run.End(err)
	}()

	res, err := w.useCase.Execute(ctx, evt)
	if res != nil {
		lowStock = len(res.Levels)
	}
	if err != nil {
		run.Fail("LOW_STOCK_CHECK_FAILED")
		return fmt.Errorf("inventory worker: low stock check: %w", err)
	}
	return nil
}
