package customer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

type countingCounter struct {
	observability.Counter
	mu     sync.Mutex
	counts map[string]float64
}

func (c *countingCounter) Add(v float64, labels ...observability.Label) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := ""
	for _, l := range labels {
		key += l.Key + "=" + l.Value + ","
	}
	c.counts[key] += v
}

func newTelemetry() (observability.Observability, *countingCounter) {
	requests := &countingCounter{Counter: observability.NopCounter(), counts: map[string]float64{}}
	tel := infraobs.New(nil, nil,
		map[observability.MetricKey]observability.Counter{observability.MUsecaseRequests: requests},
		nil,
	)
	return tel, requests
}

type failingRepo struct {
	domain.Repository
	err error
}

func (f failingRepo) FindByEmail(context.Context, string) (*domain.Customer, error) {
	return nil, f.err
}

func TestCreateCustomer(t *testing.T) {
	tel, requests := newTelemetry()
	uc := NewCreateCustomerUseCase(memory.NewStore().Customers(), tel)

	c, err := uc.Execute(context.Background(), CreateCustomerInput{Name: "  Ada ", Email: " Ada@Example.com "})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Ada", c.Name)
	assert.Equal(t, "ada@example.com", c.Email)

	_, err = uc.Execute(context.Background(), CreateCustomerInput{Name: "Other", Email: "ADA@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	assert.Equal(t, map[string]float64{
		"use_case=customer.create,outcome=success,": 1,
		"use_case=customer.create,outcome=error,":   1,
	}, requests.counts)
}

func TestCreateCustomer_Invalid(t *testing.T) {
	uc := NewCreateCustomerUseCase(memory.NewStore().Customers(), nil)

	_, err := uc.Execute(context.Background(), CreateCustomerInput{Name: " ", Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = uc.Execute(context.Background(), CreateCustomerInput{Name: "Ada", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestCreateCustomer_RepositoryFailure(t *testing.T) {
	boom := errors.New("connection reset")
	uc := NewCreateCustomerUseCase(failingRepo{err: boom}, nil)

	_, err := uc.Execute(context.Background(), CreateCustomerInput{Name: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrRepository)
	assert.ErrorIs(t, err, boom)
}
