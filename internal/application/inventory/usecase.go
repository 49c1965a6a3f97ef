package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-orders/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	inventoryService = "inventory-service"
	useCaseLowStock  = "inventory.low_stock"
	endpointLowStock = "inventory.low_stock"
)

// LowStockResult lists the products an order left at or below the threshold.
type LowStockResult struct {
	Levels []dominv.Level
}

type DetectLowStockUseCase struct {
	policy    dominv.Policy
	publisher domoutbox.Publisher
	inst      application.Instruments

	lowStockCounter observability.Counter // inventory_low_stock_total{product_id}
}

// NewDetectLowStockUseCase wires the use case. publisher may be nil, in which case
// low stock is only logged and counted.
func NewDetectLowStockUseCase(policy dominv.Policy, publisher domoutbox.Publisher, tel observability.Observability) *DetectLowStockUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	return &DetectLowStockUseCase{
		policy:          policy,
		publisher:       publisher,
		inst:            application.NewInstruments(tel, inventoryService),
		lowStockCounter: tel.Metrics().Counter(observability.MInventoryLowStock),
	}
}

// Execute checks the stock left by an order against the policy.
func (uc *DetectLowStockUseCase) Execute(ctx context.Context, e domorder.OrderCreatedEvent) (_ *LowStockResult, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseLowStock, "DetectLowStock",
		attribute.String("order.id", e.OrderID),
		attribute.Int("inventory.threshold", uc.policy.Threshold),
	)
	logger := run.With(observability.F("order_id", e.OrderID))
	result := &LowStockResult{}
	defer func() {
		run.Add(observability.F("low_stock_products", len(result.Levels)))
		run.End(err)
	}()

	levels := make([]dominv.Level, 0, len(e.Lines))
	for _, l := range e.Lines {
		levels = append(levels, dominv.Level{ProductID: l.ProductID, Remaining: l.Remaining})
	}
	result.Levels = uc.policy.LowLevels(levels)
	if len(result.Levels) == 0 {
		run.Status("STOCK_OK")
		return result, nil
	}

	var publishErrs []error
	for _, lvl := range result.Levels {
		uc.lowStockCounter.Add(1, observability.L("product_id", lvl.ProductID))
		logger.Warn("low_stock",
			observability.F("product_id", lvl.ProductID),
			observability.F("remaining", lvl.Remaining),
			observability.F("threshold", uc.policy.Threshold),
		)
		run.Span().AddEvent("inventory.low_stock",
			trace.WithAttributes(
				attribute.String("product.id", lvl.ProductID),
				attribute.Int("product.remaining", lvl.Remaining),
			),
		)

		event := dominv.NewLowStockEvent(e.OrderID, lvl, uc.policy.Threshold)
		if perr := uc.inst.Publish(ctx, uc.publisher, event, endpointLowStock); perr != nil {
			publishErrs = append(publishErrs, fmt.Errorf("%s: %w", lvl.ProductID, perr))
		}
	}
	run.Status("LOW_STOCK")

	if len(publishErrs) > 0 {
		run.Fail("EVENT_PUBLISH_FAILED")
		return result, fmt.Errorf("inventory: publish low stock: %w", errors.Join(publishErrs...))
	}
	return result, nil
}
