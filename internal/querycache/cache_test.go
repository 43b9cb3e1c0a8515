package querycache

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingStore errors on every operation, simulating an unreachable Redis.
type failingStore struct{}

var errStoreDown = stderrors.New("store down")

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errStoreDown
}
func (failingStore) Exists(context.Context, string) (bool, error) { return false, errStoreDown }
func (failingStore) Keys(context.Context, string) ([]string, error) {
	return nil, errStoreDown
}
func (failingStore) Delete(context.Context, ...string) (int64, error) { return 0, errStoreDown }
func (failingStore) Close() error                                     { return nil }

func TestGetOrComputeComputesOnce(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	qc := New(NewMemoryStore(), nil, WithClock(clock))
	key := Fingerprint(NamespaceCoords, map[string]any{"lat": 53.2, "lon": 107.3})

	calls := 0
	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{"objects":[]}`), nil
	}

	first, err := qc.GetOrCompute(context.Background(), key, 10*time.Minute, compute)
	require.NoError(t, err)
	second, err := qc.GetOrCompute(context.Background(), key, 10*time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestGetOrComputeTTLExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	qc := New(NewMemoryStore(), nil, WithClock(clock))
	key := Fingerprint(NamespaceArea, map[string]any{"name": "ольхон"})

	calls := 0
	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	}

	_, err := qc.GetOrCompute(context.Background(), key, 10*time.Minute, compute)
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, err = qc.GetOrCompute(context.Background(), key, 10*time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "entry still fresh")

	clock.Advance(2 * time.Minute)
	_, err = qc.GetOrCompute(context.Background(), key, 10*time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "entry expired")
}

func TestGetOrComputeDegradesOnStoreFailure(t *testing.T) {
	t.Parallel()

	qc := New(failingStore{}, nil)
	calls := 0
	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{"ok":true}`), nil
	}

	for range 3 {
		payload, err := qc.GetOrCompute(context.Background(), "coords_search:v2:abc", time.Minute, compute)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(payload))
	}
	assert.Equal(t, 3, calls, "every call recomputes when the store is down")
}

func TestGetOrComputePropagatesComputeError(t *testing.T) {
	t.Parallel()

	qc := New(NewMemoryStore(), nil)
	wantErr := stderrors.New("database unreachable")

	_, err := qc.GetOrCompute(context.Background(), "coords_search:v2:x", time.Minute, func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// A failed compute must not poison the cache.
	assert.False(t, qc.Has(context.Background(), "coords_search:v2:x"))
}

func TestGetOrComputeSkipsWriteOnCancelledContext(t *testing.T) {
	t.Parallel()

	qc := New(NewMemoryStore(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	payload, err := qc.GetOrCompute(ctx, "coords_search:v2:y", time.Minute, func(context.Context) ([]byte, error) {
		cancel()
		return []byte(`{}`), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), payload)
	assert.False(t, qc.Has(context.Background(), "coords_search:v2:y"))
}

func TestPurgeAndStats(t *testing.T) {
	t.Parallel()

	qc := New(NewMemoryStore(), nil)
	ctx := context.Background()

	seed := func(ns Namespace, params map[string]any) {
		key := Fingerprint(ns, params)
		_, err := qc.GetOrCompute(ctx, key, time.Hour, func(context.Context) ([]byte, error) {
			return []byte(`{}`), nil
		})
		require.NoError(t, err)
	}
	seed(NamespaceCoords, map[string]any{"lat": 53.2})
	seed(NamespaceCoords, map[string]any{"lat": 53.3})
	seed(NamespaceArea, map[string]any{"name": "хужир"})

	stats, err := qc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats[NamespaceCoords])
	assert.Equal(t, 1, stats[NamespaceArea])
	assert.Equal(t, 0, stats[NamespacePolygon])

	removed, err := qc.Purge(ctx, NamespaceCoords)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	stats, err = qc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats[NamespaceCoords])
	assert.Equal(t, 1, stats[NamespaceArea])
}
