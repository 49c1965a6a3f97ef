package prometrics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry creates Prometheus vectors behind the observability metric ports.
type Registry struct {
	reg        prometheus.Registerer
	counters   sync.Map // name -> *prometheus.CounterVec
	histograms sync.Map // name -> *prometheus.HistogramVec
	namespace  string
}

// New registers vectors on reg. A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Registry{reg: reg, namespace: namespace}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

func (c *counter) Bind(labels ...observability.Label) observability.BoundCounter {
	return &boundCounter{c: c.v.With(labelMap(labels))}
}

type boundCounter struct{ c prometheus.Counter }

func (b *boundCounter) Add(d float64) { b.c.Add(d) }

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func (h *histogram) Bind(labels ...observability.Label) observability.BoundHistogram {
	return &boundHistogram{o: h.v.With(labelMap(labels))}
}

type boundHistogram struct{ o prometheus.Observer }

func (b *boundHistogram) Observe(v float64) { b.o.Observe(v) }

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

func (r *Registry) Counter(name, help string, labelKeys ...string) (observability.Counter, error) {
	if v, ok := r.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}, nil
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Name: name, Help: help,
	}, labelKeys)
	if err := r.reg.Register(cv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register counter %s: %w", name, err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("register counter %s: %w", name, err)
		}
		cv = existing
	}
	actual, _ := r.counters.LoadOrStore(name, cv)
	return &counter{v: actual.(*prometheus.CounterVec)}, nil
}

// Histogram uses prometheus.DefBuckets when buckets is empty.
func (r *Registry) Histogram(name, help string, buckets []float64, labelKeys ...string) (observability.Histogram, error) {
	if v, ok := r.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}, nil
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	if err := r.reg.Register(hv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register histogram %s: %w", name, err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("register histogram %s: %w", name, err)
		}
		hv = existing
	}
	actual, _ := r.histograms.LoadOrStore(name, hv)
	return &histogram{v: actual.(*prometheus.HistogramVec)}, nil
}

// Instruments registers every metric in counters and histograms and returns them
// keyed for the observability provider.
func (r *Registry) Instruments(counters, histograms []observability.MetricSpec) (
	map[observability.MetricKey]observability.Counter,
	map[observability.MetricKey]observability.Histogram,
	error,
) {
	cs := make(map[observability.MetricKey]observability.Counter, len(counters))
	for _, spec := range counters {
		c, err := r.Counter(string(spec.Key), spec.Help, spec.Labels...)
		if err != nil {
			return nil, nil, err
		}
		cs[spec.Key] = c
	}
	hs := make(map[observability.MetricKey]observability.Histogram, len(histograms))
	for _, spec := range histograms {
		h, err := r.Histogram(string(spec.Key), spec.Help, nil, spec.Labels...)
		if err != nil {
			return nil, nil, err
		}
		hs[spec.Key] = h
	}
	return cs, hs, nil
}
