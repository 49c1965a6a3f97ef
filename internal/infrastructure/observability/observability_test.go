package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

type countingCounter struct {
	observability.Counter
	n float64
}

func (c *countingCounter) Add(d float64, _ ...observability.Label) { c.n += d }

func TestNewFillsNilParts(t *testing.T) {
	p := New(nil, nil, nil, nil)

	assert.NotNil(t, p.Tracer())
	assert.NotNil(t, p.Logger())
	assert.NotPanics(t, func() {
		p.Metrics().Counter(observability.MUsecaseRequests).Add(1)
		p.Metrics().Histogram(observability.MUsecaseDuration).Observe(1)
	})
}

func TestMetricsLookup(t *testing.T) {
	c := &countingCounter{Counter: observability.NopCounter()}
	p := New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: c,
		observability.MHTTPRequests:    nil,
	}, nil)

	p.Metrics().Counter(observability.MUsecaseRequests).Add(2)
	assert.Equal(t, float64(2), c.n)

	assert.NotPanics(t, func() {
		p.Metrics().Counter(observability.MHTTPRequests).Add(1)
		p.Metrics().Histogram(observability.MUsecaseDuration).Observe(1)
	})
}
