package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderFind = "order.find"

type FindOrderUseCase struct {
	orders OrderStore
	inst   application.Instruments
}

func NewFindOrderUseCase(orders OrderStore, tel observability.Observability) *FindOrderUseCase {
	return &FindOrderUseCase{
		orders: orders,
		inst:   application.NewInstruments(tel, orderService),
	}
}

// Execute loads an order with its customer and lines.
func (uc *FindOrderUseCase) Execute(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseOrderFind, "FindOrder", attribute.String("order.id", id))
	defer func() { run.End(err) }()

	if id == "" {
		run.Fail("INVALID_REQUEST")
		return nil, invalidRequest("order id is required")
	}

	o, err := uc.orders.FindByID(ctx, id)
	switch {
	case err == nil:
		return o, nil
	case errors.Is(err, domain.ErrNotFound):
		run.Fail("NOT_FOUND")
		return nil, &Error{Kind: KindNotFound, Message: "order not found", Err: err}
	default:
		run.Fail("REPO_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}
}
