package match

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"foodmatch/internal/match/metrics"
	"foodmatch/pkg/platform/sentinel"
)

const (
	// ServiceRadiusKm is the hard eligibility threshold: a recipient further
	// than this from the donation is never matched.
	ServiceRadiusKm = 5.0

	// DefaultCacheTTL bounds how long a grid cell serves its first-computed
	// match before the directory is consulted again.
	DefaultCacheTTL = 30 * time.Minute
)

// Cache memoizes the nearest recipient per grid cell. Implementations must be
// safe for concurrent use and must never return an expired entry; absence is
// signalled with sentinel.ErrNotFound. Any other error is a backend failure
// the engine absorbs.
type Cache interface {
	Get(ctx context.Context, key string) (*Recipient, error)
	Put(ctx context.Context, key string, r Recipient, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
	Healthy(ctx context.Context) bool
}

// RecipientSource supplies the scan slice. Satisfied by *Directory; tests
// substitute a counting fake to observe scan behavior.
type RecipientSource interface {
	All() []Recipient
}

// Engine resolves donations to their nearest eligible recipient. It owns no
// durable state: the cache owns its entries, the directory is a read-only
// snapshot, and results are handed to the caller.
type Engine struct {
	directory RecipientSource
	cache     Cache
	ttl       time.Duration
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTTL overrides the cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.ttl = ttl
	}
}

// NewEngine constructs an Engine over the given directory and cache.
func NewEngine(directory RecipientSource, cache Cache, opts ...Option) *Engine {
	e := &Engine{
		directory: directory,
		cache:     cache,
		ttl:       DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Find returns the nearest active recipient within ServiceRadiusKm of the
// point, or an absent result when there is none. Lookups never fail: cache
// errors degrade to a direct directory scan.
//
// A cache hit is returned without re-checking the threshold or the active
// flag, so every point in a grid cell sees the first-computed match until the
// entry expires. Misses are not cached, which keeps a cell from being pinned
// to a negative outcome.
func (e *Engine) Find(ctx context.Context, point Coordinate) MatchResult {
	key := CellKey(point)

	cached, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheHits.Inc()
		return MatchResult{Recipient: cached, DistanceKm: Distance(point, cached.Coordinate())}
	case errors.Is(err, sentinel.ErrNotFound):
		metrics.CacheMisses.Inc()
	default:
		metrics.CacheMisses.Inc()
		metrics.CacheErrors.Inc()
		e.logger.Warn("cache read failed, scanning directory", "key", key, "error", err)
	}

	result := e.scan(point)
	if !result.Matched() {
		metrics.NoMatches.Inc()
		return result
	}
	metrics.Matches.Inc()

	if err := e.cache.Put(ctx, key, *result.Recipient, e.ttl); err != nil {
		metrics.CacheErrors.Inc()
		e.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return result
}

// scan walks every active recipient and keeps the strict minimum distance
// under the service radius. Equidistant recipients resolve to the first one
// in directory order.
func (e *Engine) scan(point Coordinate) MatchResult {
	start := time.Now()
	defer func() {
		metrics.ScanDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	var nearest *Recipient
	minDistance := ServiceRadiusKm

	recipients := e.directory.All()
	for i := range recipients {
		r := recipients[i]
		if !r.Active {
			continue
		}
		d := Distance(point, r.Coordinate())
		if d < minDistance {
			nearest = &r
			minDistance = d
		}
	}

	if nearest == nil {
		return MatchResult{}
	}
	return MatchResult{Recipient: nearest, DistanceKm: minDistance}
}

// Warm runs Find over the given points to pre-populate their grid cells.
// Returns how many points resolved to a recipient (and therefore cached).
func (e *Engine) Warm(ctx context.Context, points []Coordinate) int {
	matched := 0
	for _, p := range points {
		if e.Find(ctx, p).Matched() {
			matched++
		}
	}
	return matched
}
