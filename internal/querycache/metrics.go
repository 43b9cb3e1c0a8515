package querycache

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the Prometheus metrics for cache operations.
type Metrics struct {
	HitsTotal   *prometheus.CounterVec
	MissesTotal *prometheus.CounterVec
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates cache metrics and registers them with the registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geobase_cache_hits_total",
				Help: "Total number of cache hits partitioned by namespace.",
			},
			[]string{"namespace"},
		),
		MissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geobase_cache_misses_total",
				Help: "Total number of cache misses partitioned by namespace.",
			},
			[]string{"namespace"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geobase_cache_errors_total",
				Help: "Total number of cache store errors partitioned by operation.",
			},
			[]string{"operation"},
		),
	}
	for _, c := range []*prometheus.CounterVec{m.HitsTotal, m.MissesTotal, m.ErrorsTotal} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register cache metrics: %w", err)
		}
	}
	return m, nil
}

func namespaceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}

func (m *Metrics) recordHit(key string) {
	if m == nil {
		return
	}
	m.HitsTotal.WithLabelValues(namespaceOf(key)).Inc()
}

func (m *Metrics) recordMiss(key string) {
	if m == nil {
		return
	}
	m.MissesTotal.WithLabelValues(namespaceOf(key)).Inc()
}

func (m *Metrics) recordError(operation string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(operation).Inc()
}
