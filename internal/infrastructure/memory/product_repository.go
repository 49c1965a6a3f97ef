package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
)

type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) FindAllByID(ctx context.Context, ids []string) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.s.products[id]; ok {
			out = append(out, *p.Clone())
		}
	}
	return out, nil
}

// UpdateQuantity checks every Expected value before writing anything.
func (r *ProductRepository) UpdateQuantity(ctx context.Context, updates []product.StockUpdate) error {
	return r.s.write(ctx, func() error {
		for _, u := range updates {
			p, ok := r.s.products[u.ProductID]
			if !ok {
				return fmt.Errorf("update quantity %s: %w", u.ProductID, product.ErrNotFound)
			}
			if p.Quantity != u.Expected {
				return fmt.Errorf("update quantity %s: %w", u.ProductID, product.ErrStockConflict)
			}
			if u.Quantity < 0 {
				return fmt.Errorf("update quantity %s: %w", u.ProductID, product.ErrInvalidQuantity)
			}
		}
		now := r.s.now()
		for _, u := range updates {
			p := r.s.products[u.ProductID]
			p.Quantity = u.Quantity
			p.UpdatedAt = now
		}
		return nil
	})
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (*product.Product, error) {
	_ = ctx
	name = strings.TrimSpace(name)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.products {
		if p.Name == name {
			return p.Clone(), nil
		}
	}
	return nil, product.ErrNotFound
}

func (r *ProductRepository) Create(ctx context.Context, params product.CreateParams) (*product.Product, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var created *product.Product
	err := r.s.write(ctx, func() error {
		for _, p := range r.s.products {
			if p.Name == params.Name {
				return product.ErrNameTaken
			}
		}
		now := r.s.now()
		p := &product.Product{
			ID:        r.s.ids.NewID(),
			Name:      params.Name,
			Price:     params.Price,
			Quantity:  params.Quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.s.products[p.ID] = p
		created = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
