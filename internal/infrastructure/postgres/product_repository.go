package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
)

// price travels as text so decimal.Decimal keeps its exact value
const selectProduct = `SELECT id::text, name, price::text, quantity, created_at, updated_at FROM products`

type ProductRepository struct {
	pool *pgxpool.Pool
	tx   *Transactor
	now  func() time.Time
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{
		pool: pool,
		tx:   NewTransactor(pool),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return product.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return product.Product{}, fmt.Errorf("postgres: product %s price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

// FindAllByID returns the products in one query, in no particular order.
func (r *ProductRepository) FindAllByID(ctx context.Context, ids []string) ([]product.Product, error) {
	uids := parseIDs(ids)
	if len(uids) == 0 {
		return nil, nil
	}

	rows, err := querierFrom(ctx, r.pool).Query(ctx, selectProduct+` WHERE id = ANY($1)`, uids)
	if err != nil {
		return nil, fmt.Errorf("postgres: find products: %w", err)
	}
	defer rows.Close()

	out := make([]product.Product, 0, len(uids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: find products: %w", err)
	}
	return out, nil
}

// UpdateQuantity writes each row only while its quantity still equals Expected.
// All updates share one transaction, so a single mismatch leaves every row unchanged.
func (r *ProductRepository) UpdateQuantity(ctx context.Context, updates []product.StockUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	for _, u := range updates {
		if u.Quantity < 0 {
			return fmt.Errorf("update quantity %s: %w", u.ProductID, product.ErrInvalidQuantity)
		}
	}

	return r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := r.now()
		batch := &pgx.Batch{}
		for _, u := range updates {
			uid, err := uuid.Parse(u.ProductID)
			if err != nil {
				return fmt.Errorf("update quantity %s: %w", u.ProductID, product.ErrNotFound)
			}
			batch.Queue(
				`UPDATE products SET quantity = $1, updated_at = $2 WHERE id = $3 AND quantity = $4`,
				u.Quantity, now, uid, u.Expected)
		}

		br := querierFrom(ctx, r.pool).SendBatch(ctx, batch)
		for _, u := range updates {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("postgres: update quantity %s: %w", u.ProductID, err)
			}
			if tag.RowsAffected() != 1 {
				_ = br.Close()
				return fmt.Errorf("update quantity %s: %w", u.ProductID, product.ErrStockConflict)
			}
		}
		return br.Close()
	})
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (*product.Product, error) {
	p, err := scanProduct(querierFrom(ctx, r.pool).QueryRow(ctx, selectProduct+` WHERE name = $1`, strings.TrimSpace(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, params product.CreateParams) (*product.Product, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := r.now()
	p := &product.Product{
		ID:        uuid.NewString(),
		Name:      params.Name,
		Price:     params.Price,
		Quantity:  params.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := querierFrom(ctx, r.pool).Exec(ctx,
		`INSERT INTO products (id, name, price, quantity, created_at, updated_at)
		 VALUES ($1, $2, $3::numeric, $4, $5, $6)`,
		uuid.MustParse(p.ID), p.Name, p.Price.StringFixed(2), p.Quantity, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err, "products_name_key") {
		return nil, product.ErrNameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: insert product: %w", err)
	}
	return p, nil
}
