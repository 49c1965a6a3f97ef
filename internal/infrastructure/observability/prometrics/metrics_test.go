package prometrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

func TestCounterAddsByLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "")

	c, err := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	require.NoError(t, err)
	c.Add(1, observability.L("use_case", "order.create"), observability.L("outcome", "success"))
	c.Bind(observability.L("use_case", "order.create"), observability.L("outcome", "error")).Add(2)

	expected := `
# HELP usecase_requests_total help
# TYPE usecase_requests_total counter
usecase_requests_total{outcome="error",use_case="order.create"} 2
usecase_requests_total{outcome="success",use_case="order.create"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "usecase_requests_total"))
}

func TestRegisteringTwiceReusesVector(t *testing.T) {
	reg := prometheus.NewRegistry()

	a, err := New(reg, "").Counter("x_total", "help", "k")
	require.NoError(t, err)
	// a second Registry on the same registerer hits AlreadyRegisteredError
	b, err := New(reg, "").Counter("x_total", "help", "k")
	require.NoError(t, err)

	a.Add(1, observability.L("k", "v"))
	b.Add(1, observability.L("k", "v"))

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "x_total"))
	assert.Equal(t, float64(2), testutil.ToFloat64(a.(*counter).v.WithLabelValues("v")))
}

func TestRegisterConflictingTypeFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "")

	_, err := r.Counter("dup", "help", "k")
	require.NoError(t, err)
	_, err = New(reg, "").Histogram("dup", "help", nil, "k")
	assert.Error(t, err)
}

func TestInstrumentsCoverSpecs(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms, err := New(reg, "").Instruments(observability.CounterSpecs, observability.HistogramSpecs)
	require.NoError(t, err)

	for _, spec := range observability.CounterSpecs {
		assert.Contains(t, counters, spec.Key)
	}
	for _, spec := range observability.HistogramSpecs {
		assert.Contains(t, histograms, spec.Key)
	}

	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "order.create"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, string(observability.MUsecaseDuration)))
}
