package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
)

type CustomerFinder interface {
	FindByID(ctx context.Context, id string) (*customer.Customer, error)
}

type ProductStore interface {
	FindAllByID(ctx context.Context, ids []string) ([]product.Product, error)
	UpdateQuantity(ctx context.Context, updates []product.StockUpdate) error
}

type OrderStore interface {
	Create(ctx context.Context, params domain.CreateParams) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
}
