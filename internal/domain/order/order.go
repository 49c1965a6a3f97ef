package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrNoLines         = errors.New("order: at least one line is required")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("order: price must be zero or greater")
)

// Line is a priced quantity of one product. Price is the product price when the order was placed.
type Line struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID        string
	Customer  customer.Customer
	Lines     []Line
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}

// CreateParams is the aggregate handed to Repository.Create. The repository assigns
// the order identity and stores the order with its lines as one unit.
type CreateParams struct {
	Customer customer.Customer
	Lines    []Line
}

func (p CreateParams) Validate() error {
	if len(p.Lines) == 0 {
		return ErrNoLines
	}
	for _, l := range p.Lines {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if l.Price.IsNegative() {
			return ErrInvalidPrice
		}
	}
	return nil
}
