package product

import "context"

type Repository interface {
	// FindAllByID resolves ids in one call. Unknown ids are omitted from the result.
	FindAllByID(ctx context.Context, ids []string) ([]Product, error)
	// UpdateQuantity applies all updates or none. It returns ErrStockConflict when
	// a product's current quantity differs from StockUpdate.Expected.
	UpdateQuantity(ctx context.Context, updates []StockUpdate) error
	FindByName(ctx context.Context, name string) (*Product, error)
	Create(ctx context.Context, params CreateParams) (*Product, error)
}
