// Package cache holds Redis-backed read-through decorators for repositories.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"
)

const (
	cachePeer        = "redis"
	endpointCustomer = "customer"
)

// Client is the subset of *redis.Client used by the cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CustomerRepository caches FindByID results. Customers are never updated, so
// entries only expire by TTL. Redis failures fall through to the wrapped repository.
type CustomerRepository struct {
	next      customer.Repository
	client    Client
	ttl       time.Duration
	namespace string

	// group collapses concurrent misses for one id into a single repository read.
	group singleflight.Group

	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewCustomerRepository(next customer.Repository, client Client, ttl time.Duration, namespace string, tel observability.Observability) *CustomerRepository {
	if tel == nil {
		tel = observability.Nop()
	}
	return &CustomerRepository{
		next:         next,
		client:       client,
		ttl:          ttl,
		namespace:    namespace,
		log:          tel.Logger().With(observability.F("component", "customer_cache")),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

func (r *CustomerRepository) key(id string) string {
	return fmt.Sprintf("%s:customer:%s", r.namespace, id)
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	start := time.Now()
	raw, err := r.client.Get(ctx, r.key(id)).Bytes()
	switch {
	case err == nil:
		var c customer.Customer
		if decodeErr := json.Unmarshal(raw, &c); decodeErr == nil {
			r.observe("hit", start)
			return &c, nil
		}
		r.observe("corrupt", start)
	case errors.Is(err, redis.Nil):
		r.observe("miss", start)
	default:
		r.observe("error", start)
		logctx.FromOr(ctx, r.log).Warn("cache_get_failed", observability.F("error", err))
	}

	// The read is shared by every waiter for id, so it must outlive the caller that
	// started it. Each caller still stops waiting when its own ctx is done.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(id, func() (any, error) {
		c, err := r.next.FindByID(shared, id)
		if err != nil {
			return nil, err
		}
		r.store(shared, c)
		return c, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*customer.Customer).Clone(), nil
	}
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *CustomerRepository) Create(ctx context.Context, params customer.CreateParams) (*customer.Customer, error) {
	c, err := r.next.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	r.store(ctx, c)
	return c, nil
}

func (r *CustomerRepository) store(ctx context.Context, c *customer.Customer) {
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.key(c.ID), raw, r.ttl).Err(); err != nil {
		logctx.FromOr(ctx, r.log).Warn("cache_set_failed",
			observability.F("customer_id", c.ID),
			observability.F("error", err),
		)
	}
}

func (r *CustomerRepository) observe(outcome string, start time.Time) {
	r.extCounter.Add(1,
		observability.L("peer", cachePeer),
		observability.L("endpoint", endpointCustomer),
		observability.L("outcome", outcome),
	)
	r.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", cachePeer),
		observability.L("endpoint", endpointCustomer),
	)
}
