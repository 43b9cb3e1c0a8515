package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewMetrics(registry)
	require.NoError(t, err)
	require.NotNil(t, m)

	// Registering the same collectors twice must fail, not panic.
	_, err = NewMetrics(registry)
	assert.Error(t, err)
}

func TestMetricsCountHitsAndMisses(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewMetrics(registry)
	require.NoError(t, err)

	cache := New(NewMemoryStore(), nil, WithMetrics(m))
	key := Fingerprint(NamespaceCoords, map[string]any{"lat": 53.2})

	compute := func(context.Context) ([]byte, error) { return []byte(`{}`), nil }
	_, err = cache.GetOrCompute(context.Background(), key, time.Minute, compute)
	require.NoError(t, err)
	_, err = cache.GetOrCompute(context.Background(), key, time.Minute, compute)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.MissesTotal.WithLabelValues("coords_search")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HitsTotal.WithLabelValues("coords_search")), 0.001)
}

func TestNilMetricsRecordersAreSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.recordHit("coords_search:v2:abc")
	m.recordMiss("coords_search:v2:abc")
	m.recordError("get")
}
