package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/id"
)

type IDGenerator interface {
	NewID() string
}

// Store holds every table of the in-memory backend. Repositories obtained from it
// share its data, and WithinTransaction makes their writes atomic.
//
// Transactional units and standalone writes are serialised by txMu. Reads only take
// mu, so a concurrent reader may observe writes of a unit that later rolls back.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	ids IDGenerator
	now func() time.Time

	customers map[string]*customer.Customer
	products  map[string]*product.Product
	orders    map[string]*order.Order
}

type Option func(*Store)

func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		ids:       id.UUIDGenerator{},
		now:       func() time.Time { return time.Now().UTC() },
		customers: make(map[string]*customer.Customer),
		products:  make(map[string]*product.Product),
		orders:    make(map[string]*order.Order),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTransaction runs fn as one unit. If fn fails, every table is restored to
// its state before the call. Nested calls join the outer unit.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// write runs fn under the write lock, joining the caller's unit if there is one.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	customers map[string]*customer.Customer
	products  map[string]*product.Product
	orders    map[string]*order.Order
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		customers: make(map[string]*customer.Customer, len(s.customers)),
		products:  make(map[string]*product.Product, len(s.products)),
		orders:    make(map[string]*order.Order, len(s.orders)),
	}
	for k, v := range s.customers {
		snap.customers[k] = v.Clone()
	}
	for k, v := range s.products {
		snap.products[k] = v.Clone()
	}
	for k, v := range s.orders {
		snap.orders[k] = v.Clone()
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = snap.customers
	s.products = snap.products
	s.orders = snap.orders
}

func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{s: s} }
func (s *Store) Products() *ProductRepository   { return &ProductRepository{s: s} }
func (s *Store) Orders() *OrderRepository       { return &OrderRepository{s: s} }
