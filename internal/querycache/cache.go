package querycache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/taigabase/geobase/internal/errors"
)

// Clock supplies the current time. Injected so tests drive expiry
// deterministically instead of sleeping.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = realClock{}

// envelope wraps a stored payload with its own expiry stamp. Lookup
// validates the stamp against the injected clock, so an entry past its TTL
// is a miss even if the backend has not evicted it yet.
type envelope struct {
	ExpiresAt time.Time       `json:"expiresAt"`
	Payload   json.RawMessage `json:"payload"`
}

// Cache memoizes computed responses behind fingerprint keys. Store failures
// are logged and treated as misses; a request never fails because the cache
// is down.
type Cache struct {
	store   Store
	clock   Clock
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the cache clock.
func WithClock(c Clock) Option {
	return func(qc *Cache) { qc.clock = c }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(qc *Cache) { qc.metrics = m }
}

// New creates a Cache on top of the given store.
func New(store Store, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	qc := &Cache{
		store:  store,
		clock:  SystemClock,
		logger: logger.With("service", "querycache"),
	}
	for _, opt := range opts {
		opt(qc)
	}
	return qc
}

// GetOrCompute returns the cached payload for key when fresh, otherwise
// invokes compute, stores its result with the given TTL, and returns it.
// Two concurrent callers racing on the same key may both compute; the last
// write wins, which is harmless because the value is a pure function of the
// request.
func (qc *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if payload, ok := qc.lookup(ctx, key); ok {
		return payload, nil
	}

	payload, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	// Best effort: a cancelled request skips the write and only costs a
	// future miss.
	if ctx.Err() == nil {
		qc.put(ctx, key, payload, ttl)
	}
	return payload, nil
}

func (qc *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	raw, err := qc.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			qc.logger.Warn("cache lookup failed, treating as miss", "key", key, "error", err)
			qc.metrics.recordError("get")
		}
		qc.metrics.recordMiss(key)
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		qc.logger.Warn("cache entry has unexpected shape, treating as miss", "key", key)
		qc.metrics.recordMiss(key)
		return nil, false
	}
	if qc.clock.Now().After(env.ExpiresAt) {
		qc.metrics.recordMiss(key)
		return nil, false
	}

	qc.metrics.recordHit(key)
	return env.Payload, true
}

func (qc *Cache) put(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	env := envelope{
		ExpiresAt: qc.clock.Now().Add(ttl),
		Payload:   payload,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		qc.logger.Error("failed to serialize cache entry", "key", key, "error", err)
		return
	}
	if err := qc.store.Set(ctx, key, raw, ttl); err != nil {
		qc.logger.Warn("cache store failed, entry skipped", "key", key, "error", err)
		qc.metrics.recordError("set")
	}
}

// Has reports whether a fresh entry exists for key without touching the
// hit/miss counters.
func (qc *Cache) Has(ctx context.Context, key string) bool {
	raw, err := qc.store.Get(ctx, key)
	if err != nil {
		return false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	return !qc.clock.Now().After(env.ExpiresAt)
}

// Keys lists stored keys for a namespace. Maintenance only.
func (qc *Cache) Keys(ctx context.Context, ns Namespace) ([]string, error) {
	return qc.store.Keys(ctx, string(ns)+":*")
}

// Purge removes every entry in a namespace and returns the count removed.
// Maintenance only.
func (qc *Cache) Purge(ctx context.Context, ns Namespace) (int64, error) {
	keys, err := qc.store.Keys(ctx, string(ns)+":*")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return qc.store.Delete(ctx, keys...)
}

// Stats summarizes keyspace occupancy per namespace. Maintenance only.
func (qc *Cache) Stats(ctx context.Context) (map[Namespace]int, error) {
	stats := make(map[Namespace]int, 3)
	for _, ns := range []Namespace{NamespaceArea, NamespaceCoords, NamespacePolygon} {
		keys, err := qc.store.Keys(ctx, string(ns)+":*")
		if err != nil {
			return nil, err
		}
		stats[ns] = len(keys)
	}
	return stats, nil
}

// Close releases the underlying store.
func (qc *Cache) Close() error {
	return qc.store.Close()
}
