package inventory

import "time"

// LowStockEvent is emitted when an order leaves a product at or below the threshold.
type LowStockEvent struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	Remaining  int       `json:"remaining"`
	Threshold  int       `json:"threshold"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (LowStockEvent) EventName() string { return "inventory.low_stock" }

// EventKey partitions the event by product id.
func (e LowStockEvent) EventKey() string { return e.ProductID }

func NewLowStockEvent(orderID string, level Level, threshold int) LowStockEvent {
	return LowStockEvent{
		ProductID:  level.ProductID,
		OrderID:    orderID,
		Remaining:  level.Remaining,
		Threshold:  threshold,
		OccurredAt: time.Now().UTC(),
	}
}
