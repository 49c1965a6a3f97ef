package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
	publishEndpoint    = "order.created"
)

// CreateOrderUseCase places an order for a customer, checks availability for every
// requested product and decrements stock by the ordered quantities.
type CreateOrderUseCase struct {
	customers CustomerFinder
	products  ProductStore
	orders    OrderStore
	tx        application.Transactor
	publisher domoutbox.Publisher
	inst      application.Instruments
}

// NewCreateOrderUseCase wires the use case. tx and publisher may be nil: without a
// transactor the order insert and the stock update run as separate writes, and
// without a publisher no order.created event is emitted.
func NewCreateOrderUseCase(
	customers CustomerFinder,
	products ProductStore,
	orders OrderStore,
	tx application.Transactor,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		customers: customers,
		products:  products,
		orders:    orders,
		tx:        tx,
		publisher: publisher,
		inst:      application.NewInstruments(tel, orderService),
	}
}

// RequestedLine is one (product id, quantity) entry of a request.
type RequestedLine struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	CustomerID string
	Products   []RequestedLine
}

// Execute runs the order creation pipeline. Any rejection is an *Error; storage
// failures are wrapped with ErrRepository.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.String("order.customer_id", cmd.CustomerID),
		attribute.Int("order.requested_lines", len(cmd.Products)),
	)
	defer func() { run.End(err) }()

	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}

	// Step 1: the customer must exist and at least one product must be requested.
	if len(cmd.Products) == 0 {
		run.Fail("INVALID_REQUEST")
		return nil, invalidRequest("customer does not exist or no products supplied")
	}
	for _, rl := range cmd.Products {
		if strings.TrimSpace(rl.ProductID) == "" {
			run.Fail("INVALID_REQUEST")
			return nil, invalidRequest("product id is required")
		}
		if rl.Quantity <= 0 {
			run.Fail("INVALID_REQUEST")
			return nil, invalidRequest("quantity must be greater than zero")
		}
	}

	var cust *customer.Customer
	if strings.TrimSpace(cmd.CustomerID) != "" {
		found, lookupErr := uc.customers.FindByID(ctx, cmd.CustomerID)
		switch {
		case lookupErr == nil:
			cust = found
		case errors.Is(lookupErr, customer.ErrNotFound):
			// rejected below
		default:
			run.Fail("CUSTOMER_LOOKUP_FAILED")
			return nil, wrapRepositoryError(lookupErr)
		}
	}
	if cust == nil {
		run.Fail("INVALID_REQUEST")
		return nil, invalidRequest("customer does not exist or no products supplied")
	}

	// Step 2: resolve every distinct product id in one call.
	ids, requested, overflow := aggregate(cmd.Products)
	found, err := uc.products.FindAllByID(ctx, ids)
	if err != nil {
		run.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, wrapRepositoryError(err)
	}

	// Step 3: the lookup returned nothing at all.
	if len(found) == 0 {
		run.Fail("PRODUCTS_NOT_FOUND")
		return nil, notFound("no products found", ids)
	}

	// Step 4: some requested ids are unknown.
	byID := product.Index(found)
	var missing []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		run.Fail("PRODUCTS_NOT_FOUND")
		return nil, notFound("some requested products are non-existent", missing)
	}

	// Step 5: requested quantity must not exceed stock. A total that does not fit
	// in an int exceeds any stock.
	var short []string
	for _, id := range ids {
		if overflow[id] || requested[id] > byID[id].Quantity {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		run.Fail("INSUFFICIENT_STOCK")
		return nil, insufficientStock("quantity is not available", short, nil)
	}

	// Step 6: price every line from the stored product.
	lines := make([]domain.Line, 0, len(cmd.Products))
	for _, rl := range cmd.Products {
		lines = append(lines, domain.Line{
			ProductID: rl.ProductID,
			Quantity:  rl.Quantity,
			Price:     byID[rl.ProductID].Price,
		})
	}

	updates := make([]product.StockUpdate, 0, len(ids))
	remaining := make(map[string]int, len(ids))
	for _, id := range ids {
		stock := byID[id].Quantity
		remaining[id] = stock - requested[id]
		updates = append(updates, product.StockUpdate{
			ProductID: id,
			Quantity:  remaining[id],
			Expected:  stock,
		})
	}

	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return nil, err
	}

	// Steps 6 and 7: persist the order and decrement stock as one unit.
	var created *domain.Order
	var stockErr error
	txErr := application.InTransaction(ctx, uc.tx, func(ctx context.Context) error {
		o, err := uc.orders.Create(ctx, domain.CreateParams{Customer: *cust, Lines: lines})
		if err != nil {
			return err
		}
		created = o
		if err := uc.products.UpdateQuantity(ctx, updates); err != nil {
			stockErr = err
			return err
		}
		return nil
	})
	if txErr != nil {
		if stockErr == nil {
			run.Fail("REPO_INSERT_FAILED")
			return nil, wrapRepositoryError(txErr)
		}
		if uc.tx == nil && created != nil {
			// Without a transactor the order row survives a failed stock update.
			run.Logger().Error("stock_update_failed",
				observability.F("order_id", created.ID),
				observability.F("error", stockErr.Error()),
			)
		}
		if errors.Is(stockErr, product.ErrStockConflict) {
			run.Fail("STOCK_CONFLICT")
			return nil, insufficientStock("stock changed concurrently", ids, stockErr)
		}
		run.Fail("STOCK_UPDATE_FAILED")
		return nil, wrapRepositoryError(stockErr)
	}

	run.Add(observability.F("order_id", created.ID))
	run.Span().SetAttributes(
		attribute.String("order.id", created.ID),
		attribute.Int("order.lines", len(created.Lines)),
		attribute.String("order.total", created.Total().String()),
	)
	run.Span().AddEvent("order.created",
		trace.WithAttributes(attribute.String("order.id", created.ID)),
	)

	if uc.publisher != nil {
		if perr := uc.inst.Publish(ctx, uc.publisher, domain.NewOrderCreatedEvent(created, remaining), publishEndpoint); perr != nil {
			run.Status("EVENT_PUBLISH_FAILED")
			run.Add(observability.F("event_publish_error", perr.Error()))
		}
	}

	return created, nil
}

// aggregate returns the distinct product ids in first-seen order and the total
// quantity requested per id. Ids whose total would overflow an int are flagged in
// overflow and their total is left at the last value that fit.
func aggregate(lines []RequestedLine) (ids []string, totals map[string]int, overflow map[string]bool) {
	ids = make([]string, 0, len(lines))
	totals = make(map[string]int, len(lines))
	overflow = make(map[string]bool)
	for _, l := range lines {
		sum, seen := totals[l.ProductID]
		if !seen {
			ids = append(ids, l.ProductID)
		}
		if l.Quantity > math.MaxInt-sum {
			overflow[l.ProductID] = true
			continue
		}
		totals[l.ProductID] = sum + l.Quantity
	}
	return ids, totals, overflow
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
