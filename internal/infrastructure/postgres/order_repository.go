package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
)

type OrderRepository struct {
	pool *pgxpool.Pool
	tx   *Transactor
	now  func() time.Time
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{
		pool: pool,
		tx:   NewTransactor(pool),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts the order row and one orders_products row per line in one transaction.
func (r *OrderRepository) Create(ctx context.Context, params order.CreateParams) (*order.Order, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	customerID, err := uuid.Parse(params.Customer.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: order customer id %q: %w", params.Customer.ID, err)
	}

	now := r.now()
	o := &order.Order{
		ID:        uuid.NewString(),
		Customer:  params.Customer,
		Lines:     append([]order.Line(nil), params.Lines...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	orderID := uuid.MustParse(o.ID)

	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		batch := &pgx.Batch{}
		batch.Queue(
			`INSERT INTO orders (id, customer_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
			orderID, customerID, now, now)
		for i, l := range o.Lines {
			productID, err := uuid.Parse(l.ProductID)
			if err != nil {
				return fmt.Errorf("postgres: order line product id %q: %w", l.ProductID, err)
			}
			batch.Queue(
				`INSERT INTO orders_products (id, order_id, product_id, price, quantity, created_at, updated_at)
				 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
				// lines are read back ordered by created_at
				uuid.New(), orderID, productID, l.Price.String(), l.Quantity, now.Add(time.Duration(i)*time.Microsecond), now)
		}
		return querierFrom(ctx, r.pool).SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: insert order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, order.ErrNotFound
	}
	q := querierFrom(ctx, r.pool)

	var o order.Order
	err = q.QueryRow(ctx, `
		SELECT o.id::text, o.created_at, o.updated_at,
		       c.id::text, c.name, c.email, c.created_at, c.updated_at
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1`, uid).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt,
			&o.Customer.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.CreatedAt, &o.Customer.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find order: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT product_id::text, quantity, price::text
		FROM orders_products WHERE order_id = $1
		ORDER BY created_at, id`, uid)
	if err != nil {
		return nil, fmt.Errorf("postgres: find order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l order.Line
		var price string
		if err := rows.Scan(&l.ProductID, &l.Quantity, &price); err != nil {
			return nil, fmt.Errorf("postgres: scan order line: %w", err)
		}
		if l.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("postgres: order line price %q: %w", price, err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: find order lines: %w", err)
	}
	return &o, nil
}
