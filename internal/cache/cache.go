// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package cache memoizes per-producer score maps so repeated requests for
// the same user skip the expensive similarity computations.
//
// The primary backend is Redis (SetEx/Get with JSON payloads) so warmed
// entries survive process restarts and are shared across replicas. Backend
// calls run behind a circuit breaker with a bounded timeout; on failure
// the cache degrades silently to an in-process map. A cache failure is
// never an error to the caller, only a recompute.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/umair801/eCommerce-recommendation-engine/internal/metrics"
)

// Config contains compute cache parameters.
type Config struct {
	// TTL is how long a computed score map stays valid.
	TTL time.Duration

	// MaxEntries caps the in-process fallback map.
	MaxEntries int

	// OpTimeout bounds each backend call.
	OpTimeout time.Duration
}

// Backend is the subset of Redis string operations the cache uses.
// *redis.Client satisfies it; tests substitute doubles.
type Backend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// localEntry is one in-process cached score map.
type localEntry struct {
	scores    map[string]float64
	expiresAt time.Time
}

// ComputeCache caches producer score maps keyed by user and producer.
// It is safe for concurrent use. Concurrent misses for the same key may
// compute more than once; writes are last-writer-wins.
type ComputeCache struct {
	logger  zerolog.Logger
	client  Backend
	breaker *gobreaker.CircuitBreaker[interface{}]
	ttl     time.Duration
	timeout time.Duration

	mu         sync.Mutex
	local      map[string]localEntry
	maxEntries int

	now func() time.Time
}

// New creates a compute cache. client may be nil, in which case only the
// in-process map is used (degraded mode).
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(client Backend, cfg Config, logger zerolog.Logger) *ComputeCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 50 * time.Millisecond
	}

	return &ComputeCache{
		logger: logger.With().Str("component", "compute_cache").Logger(),
		client: client,
		breaker: gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
			Name:    "compute-cache-redis",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		ttl:        cfg.TTL,
		timeout:    cfg.OpTimeout,
		local:      make(map[string]localEntry),
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

// Key returns the cache key for a user/producer pair.
func Key(producer, userID string) string {
	return "rec:" + producer + ":" + userID
}

// GetOrCompute returns the cached score map for (userID, producer) if one
// is still valid, otherwise runs compute, caches its result, and returns
// it. A compute error is returned as-is and nothing is cached. The
// returned map is shared; callers must treat it as read-only.
func (c *ComputeCache) GetOrCompute(
	ctx context.Context,
	userID, producer string,
	compute func(ctx context.Context) (map[string]float64, error),
) (map[string]float64, error) {
	key := Key(producer, userID)

	if scores, ok := c.backendGet(ctx, key); ok {
		metrics.CacheHits.WithLabelValues("redis").Inc()
		return scores, nil
	}

	if scores, ok := c.localGet(key); ok {
		metrics.CacheHits.WithLabelValues("local").Inc()
		return scores, nil
	}

	metrics.CacheMisses.Inc()

	scores, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.localSet(key, scores)
	c.backendSet(ctx, key, scores)

	return scores, nil
}

// backendGet reads a score map from Redis. A missing key, a backend
// failure, and an undecodable payload all report a miss.
func (c *ComputeCache) backendGet(ctx context.Context, key string) (map[string]float64, bool) {
	if c.client == nil {
		return nil, false
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		raw, err := c.client.Get(opCtx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is a normal outcome, not a backend failure.
			return []byte(nil), nil
		}
		return raw, err
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache backend read failed")
		return nil, false
	}

	raw, ok := result.([]byte)
	if !ok || raw == nil {
		return nil, false
	}

	var scores map[string]float64
	if err := json.Unmarshal(raw, &scores); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache payload undecodable, recomputing")
		return nil, false
	}
	return scores, true
}

// backendSet writes a score map to Redis with the configured TTL.
// Failures are logged and absorbed.
func (c *ComputeCache) backendSet(ctx context.Context, key string, scores map[string]float64) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(scores)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache payload marshal failed")
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.client.SetEx(opCtx, key, payload, c.ttl).Result()
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache backend write failed")
	}
}

// localGet reads the in-process map, expiring the entry passively.
func (c *ComputeCache) localGet(key string) (map[string]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.local[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.local, key)
		return nil, false
	}
	return entry.scores, true
}

// localSet stores into the in-process map, evicting when full: expired
// entries first, then the entry closest to expiry.
func (c *ComputeCache) localSet(key string, scores map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.local[key]; !exists && len(c.local) >= c.maxEntries {
		c.evictLocked()
	}

	c.local[key] = localEntry{scores: scores, expiresAt: c.now().Add(c.ttl)}
}

// evictLocked frees at least one slot. Caller holds c.mu.
func (c *ComputeCache) evictLocked() {
	now := c.now()
	for k, e := range c.local {
		if now.After(e.expiresAt) {
			delete(c.local, k)
		}
	}
	if len(c.local) < c.maxEntries {
		return
	}

	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.local {
		if !found || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.local, oldestKey)
	}
}

// Len reports the number of in-process entries, including ones not yet
// passively expired.
func (c *ComputeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.local)
}
