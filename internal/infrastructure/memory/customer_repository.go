package memory

import (
	"context"
	"strings"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
)

type CustomerRepository struct {
	s *Store
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	_ = ctx

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c.Clone(), nil
}

// FindByEmail matches case-insensitively.
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	_ = ctx
	email = strings.ToLower(strings.TrimSpace(email))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.customers {
		if c.Email == email {
			return c.Clone(), nil
		}
	}
	return nil, customer.ErrNotFound
}

func (r *CustomerRepository) Create(ctx context.Context, params customer.CreateParams) (*customer.Customer, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var created *customer.Customer
	err := r.s.write(ctx, func() error {
		for _, c := range r.s.customers {
			if c.Email == params.Email {
				return customer.ErrEmailTaken
			}
		}
		now := r.s.now()
		c := &customer.Customer{
			ID:        r.s.ids.NewID(),
			Name:      params.Name,
			Email:     params.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.s.customers[c.ID] = c
		created = c.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
