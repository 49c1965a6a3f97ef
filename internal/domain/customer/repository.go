package customer

import "context"

type Repository interface {
	// FindByID returns ErrNotFound when no customer has the id.
	FindByID(ctx context.Context, id string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, params CreateParams) (*Customer, error)
}
