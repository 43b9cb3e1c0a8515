package querycache

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/taigabase/geobase/internal/errors"
)

// ErrCacheMiss is returned by Store.Get when no fresh entry exists for a
// key. A plain sentinel so it never matches real store errors.
var ErrCacheMiss = stderrors.New("cache miss")

// Store is the key-value backend behind the cache. Keys carry their
// namespace prefix; values are opaque serialized payloads. Pattern
// operations are for maintenance only and never sit on the request path.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) (int64, error)
	Close() error
}

// RedisStore backs the cache with a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the given address and verifies the connection
// with a ping before returning.
func NewRedisStore(ctx context.Context, addr, password string, db int, timeout time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.New(err).
			Component("querycache").
			Category(errors.CategoryNetwork).
			Context("addr", addr).
			Build()
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.New(err).
			Component("querycache").
			Category(errors.CategoryCache).
			Context("operation", "get").
			Build()
	}
	return payload, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, key, payload, ttl).Err(); err != nil {
		return errors.New(err).
			Component("querycache").
			Category(errors.CategoryCache).
			Context("operation", "setex").
			Build()
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.New(err).
			Component("querycache").
			Category(errors.CategoryCache).
			Context("operation", "exists").
			Build()
	}
	return n > 0, nil
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, errors.New(err).
			Component("querycache").
			Category(errors.CategoryCache).
			Context("operation", "keys").
			Build()
	}
	return keys, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.New(err).
			Component("querycache").
			Category(errors.CategoryCache).
			Context("operation", "del").
			Build()
	}
	return n, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is an in-process Store used when Redis is disabled and in
// tests. Its TTL handling delegates to the underlying cache's janitor.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates an in-process store. Entries expire per-item; the
// janitor sweeps every few minutes.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: gocache.New(gocache.NoExpiration, 5*time.Minute)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	payload, ok := v.([]byte)
	if !ok {
		return nil, ErrCacheMiss
	}
	return payload, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	s.cache.Set(key, payload, ttl)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.cache.Get(key)
	return ok, nil
}

func (s *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for key := range s.cache.Items() {
		if matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, key := range keys {
		if _, ok := s.cache.Get(key); ok {
			s.cache.Delete(key)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}

// matchPattern supports the single trailing-star glob form used for
// namespace maintenance ("coords_search:*"). Anything else matches exactly.
func matchPattern(pattern, key string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return pattern == key
}
