package product

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("product: not found")
	ErrNameTaken       = errors.New("product: name already in use")
	ErrInvalidName     = errors.New("product: name is required")
	ErrInvalidPrice    = errors.New("product: price must be between 0 and 99999999.99")
	ErrInvalidQuantity = errors.New("product: quantity must be between 0 and 2147483647")
	// ErrStockConflict means a product's stock no longer matched the expected snapshot on update.
	ErrStockConflict = errors.New("product: stock changed concurrently")
)

// Prices are stored as decimal(10,2) and stock as a 32-bit integer.
const (
	PriceScale  = 2
	MaxQuantity = math.MaxInt32
)

var MaxPrice = decimal.RequireFromString("99999999.99")

type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateParams struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Normalize trims the name and rounds the price to cents, so every store keeps the
// same value.
func (p CreateParams) Normalize() CreateParams {
	p.Name = strings.TrimSpace(p.Name)
	p.Price = p.Price.Round(PriceScale)
	return p
}

func (p CreateParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() || p.Price.GreaterThan(MaxPrice) {
		return ErrInvalidPrice
	}
	if p.Quantity < 0 || p.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// StockUpdate sets a product's quantity, guarded by the quantity read before the update.
type StockUpdate struct {
	ProductID string
	Quantity  int
	Expected  int
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Index maps products by id.
func Index(products []Product) map[string]Product {
	out := make(map[string]Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out
}
