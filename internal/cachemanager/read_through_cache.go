package cachemanager

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats counts read-through lookups since the cache was created.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Failures uint64 // misses whose load failed; failures are never cached
}

// HitRate returns Hits over all lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ReadThroughCache loads missing values through fn and stores them.
// Errors from fn are returned and not cached, so a rule whose pattern is
// fixed compiles on the next pass.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache           CacheManager[K, V]
	fn              func(ctx context.Context, input I) (V, error)
	shouldSkipCache bool

	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64
}

// NewReadThroughCache wraps cache. With shouldSkipCache every lookup calls fn.
func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	shouldSkipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:           cache,
		fn:              fn,
		shouldSkipCache: shouldSkipCache,
	}
}

// Get returns the cached value for key or loads it from input.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.get(ctx, key, input, ttl, false)
}

// GetWithRefresh is Get, but a hit extends the entry's ttl.
func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	return r.get(ctx, key, input, ttl, true)
}

func (r *ReadThroughCache[K, V, I]) get(ctx context.Context, key K, input I, ttl time.Duration, refresh bool) (V, error) {
	if !r.shouldSkipCache {
		var (
			value V
			ok    bool
		)
		if refresh {
			value, ok = r.cache.GetWithRefresh(ctx, key, ttl)
		} else {
			value, ok = r.cache.Get(ctx, key)
		}
		if ok {
			r.hits.Add(1)
			return value, nil
		}
	}

	r.misses.Add(1)
	value, err := r.fn(ctx, input)
	if err != nil {
		r.failures.Add(1)
		return value, err
	}
	if !r.shouldSkipCache {
		r.cache.Set(ctx, key, value, ttl)
	}
	return value, nil
}

// Invalidate drops keys so the next lookup reloads them.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, keys ...K) error {
	return r.cache.Delete(ctx, keys...)
}

// Stats returns the lookup counters.
func (r *ReadThroughCache[K, V, I]) Stats() Stats {
	return Stats{
		Hits:     r.hits.Load(),
		Misses:   r.misses.Load(),
		Failures: r.failures.Load(),
	}
}
