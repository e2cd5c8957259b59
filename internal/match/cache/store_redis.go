package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"foodmatch/internal/match"
	"foodmatch/pkg/platform/sentinel"
)

const (
	// cellKeyPrefix namespaces match-cache keys in a shared Redis.
	cellKeyPrefix = "match:cell:"

	// defaultCallTimeout caps every Redis round-trip. The engine fails open
	// on timeout, so this stays short: a slow cache must never make a lookup
	// slower than the scan it memoizes by much.
	defaultCallTimeout = 500 * time.Millisecond
)

// RedisStore is a Redis-backed match.Cache. Values are JSON-encoded
// recipients with a per-key TTL; Clear and Size enumerate the key namespace
// with SCAN. Client lifecycle is managed by the caller.
type RedisStore struct {
	client      *redis.Client
	callTimeout time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithCallTimeout overrides the per-operation timeout.
func WithCallTimeout(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.callTimeout = d
	}
}

// NewRedis constructs a Redis-backed store over an existing client.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:      client,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached recipient for key. Redis handles expiry, so an
// expired key is simply absent. Absence maps to sentinel.ErrNotFound; any
// other failure is returned for the engine to absorb.
func (s *RedisStore) Get(ctx context.Context, key string) (*match.Recipient, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, cellKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %q: %w", key, err)
	}

	var r match.Recipient
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("cache decode %q: %w", key, err)
	}
	return &r, nil
}

// Put stores the recipient under key with the given TTL, overwriting any
// previous entry and resetting its expiry.
func (s *RedisStore) Put(ctx context.Context, key string, r match.Recipient, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	if err := s.client.Set(ctx, cellKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// Invalidate removes one entry; deleting a missing key is a no-op in Redis.
func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.client.Del(ctx, cellKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cache invalidate %q: %w", key, err)
	}
	return nil
}

// Clear deletes every key in the match-cache namespace. SCAN keeps this from
// blocking Redis the way KEYS would on a shared instance.
func (s *RedisStore) Clear(ctx context.Context) error {
	// Enumeration can exceed one call budget; give Clear a few of them.
	ctx, cancel := context.WithTimeout(ctx, 4*s.callTimeout)
	defer cancel()

	iter := s.client.Scan(ctx, 0, cellKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache clear scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache clear delete: %w", err)
	}
	return nil
}

// Size counts live entries in the namespace. Redis has already evicted
// expired keys, so the count matches what Get would serve.
func (s *RedisStore) Size(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 4*s.callTimeout)
	defer cancel()

	count := 0
	iter := s.client.Scan(ctx, 0, cellKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("cache size scan: %w", err)
	}
	return count, nil
}

// Healthy pings the backend. A false here means lookups run uncached, not
// that the service is down.
func (s *RedisStore) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.client.Ping(ctx).Err() == nil
}
