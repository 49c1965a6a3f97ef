// Package observability assembles the vendor-neutral observability ports from
// concrete tracer, logger and metric instruments.
package observability

import (
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

type registeredMetrics struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

// Counter falls back to a no-op for keys that were never registered.
func (m *registeredMetrics) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok {
		return c
	}
	return observability.NopCounter()
}

func (m *registeredMetrics) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok {
		return h
	}
	return observability.NopHistogram()
}

// New assembles an Observability provider backed by the supplied tracer, logger, and metric instruments.
// Nil parts are replaced with no-ops.
func New(
	tracer observability.Tracer,
	logger observability.Logger,
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	var metrics observability.Metrics = observability.NopMetrics()
	if len(counters) > 0 || len(histograms) > 0 {
		m := &registeredMetrics{
			counters:   make(map[observability.MetricKey]observability.Counter, len(counters)),
			histograms: make(map[observability.MetricKey]observability.Histogram, len(histograms)),
		}
		for k, v := range counters {
			if v != nil {
				m.counters[k] = v
			}
		}
		for k, v := range histograms {
			if v != nil {
				m.histograms[k] = v
			}
		}
		metrics = m
	}

	return &provider{
		tracer:  tracer,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
