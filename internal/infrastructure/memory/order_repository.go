package memory

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
)

type OrderRepository struct {
	s *Store
}

// Create stores the order and its lines. The customer must exist in the store.
func (r *OrderRepository) Create(ctx context.Context, params order.CreateParams) (*order.Order, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var created *order.Order
	err := r.s.write(ctx, func() error {
		c, ok := r.s.customers[params.Customer.ID]
		if !ok {
			// mirrors the orders.customer_id foreign key
			return fmt.Errorf("memory: order customer %q: %w", params.Customer.ID, customer.ErrNotFound)
		}
		now := r.s.now()
		o := &order.Order{
			ID:        r.s.ids.NewID(),
			Customer:  *c.Clone(),
			Lines:     append([]order.Line(nil), params.Lines...),
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.s.orders[o.ID] = o
		created = o.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}
