package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
)

const selectCustomer = `SELECT id::text, name, email, created_at, updated_at FROM customers`

type CustomerRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, customer.ErrNotFound
	}
	return r.findOne(ctx, selectCustomer+` WHERE id = $1`, uid)
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	email = customer.CreateParams{Email: email}.Normalize().Email
	return r.findOne(ctx, selectCustomer+` WHERE email = $1`, email)
}

func (r *CustomerRepository) findOne(ctx context.Context, query string, arg any) (*customer.Customer, error) {
	var c customer.Customer
	err := querierFrom(ctx, r.pool).QueryRow(ctx, query, arg).
		Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, customer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, params customer.CreateParams) (*customer.Customer, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := r.now()
	c := &customer.Customer{
		ID:        uuid.NewString(),
		Name:      params.Name,
		Email:     params.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := querierFrom(ctx, r.pool).Exec(ctx,
		`INSERT INTO customers (id, name, email, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.MustParse(c.ID), c.Name, c.Email, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err, "customers_email_key") {
		return nil, customer.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: insert customer: %w", err)
	}
	return c, nil
}
