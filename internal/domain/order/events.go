package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatedLine describes one order line together with the product stock left after the order.
type CreatedLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Remaining int             `json:"remaining"`
}

// OrderCreatedEvent is emitted once an order and its stock decrement are committed.
type OrderCreatedEvent struct {
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	Lines      []CreatedLine   `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

// EventKey partitions the event by order id.
func (e OrderCreatedEvent) EventKey() string { return e.OrderID }

// NewOrderCreatedEvent builds the event; remaining maps product id to stock after the decrement.
func NewOrderCreatedEvent(o *Order, remaining map[string]int) OrderCreatedEvent {
	lines := make([]CreatedLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, CreatedLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Remaining: remaining[l.ProductID],
		})
	}
	return OrderCreatedEvent{
		OrderID:    o.ID,
		CustomerID: o.Customer.ID,
		Lines:      lines,
		Total:      o.Total(),
		OccurredAt: time.Now().UTC(),
	}
}
