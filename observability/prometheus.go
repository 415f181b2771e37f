package observability

import (
	"io"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Compile-time interface check.
var _ MetricFactory = (*PrometheusFactory)(nil)

// PrometheusFactory adapts a Prometheus registry to the MetricFactory
// interface. Metric names are normalized for the exposition format: dots
// become underscores, so "granary.payout.sent" is exported as
// "granary_payout_sent".
type PrometheusFactory struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewPrometheusFactory creates a factory backed by the given registry.
// Pass nil to use a fresh private registry.
func NewPrometheusFactory(registry *prometheus.Registry) *PrometheusFactory {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &PrometheusFactory{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Registry returns the underlying registry, for mounting an HTTP exporter.
func (f *PrometheusFactory) Registry() *prometheus.Registry { return f.registry }

// Counter implements MetricFactory. Repeated calls with the same name return
// the same counter.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := promName(name)
	if c, ok := f.counters[key]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: key,
		Help: name,
	})
	f.registry.MustRegister(c)
	f.counters[key] = c
	return c
}

// Histogram implements MetricFactory. Repeated calls with the same name
// return the same histogram.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := promName(name)
	if h, ok := f.histograms[key]; ok {
		return h
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    key,
		Help:    name,
		Buckets: prometheus.DefBuckets,
	})
	f.registry.MustRegister(h)
	f.histograms[key] = h
	return h
}

// WriteText writes the current metric state to w in the Prometheus text
// exposition format, for serving from a /metrics handler.
func (f *PrometheusFactory) WriteText(w io.Writer) error {
	families, err := f.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// promName converts a dotted metric name to a Prometheus-safe one.
func promName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}
