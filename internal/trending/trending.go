// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package trending maintains the live popularity signal: a concurrent
// score-per-product structure supporting atomic increments and top-K reads.
//
// The primary backend is a Redis sorted set shared across serving
// processes. Every backend call carries a bounded timeout and runs behind
// a circuit breaker; on failure or an open breaker the in-process rolling
// window serves instead. Increments are always mirrored into the window so
// a backend outage never goes dark.
package trending

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/umair801/eCommerce-recommendation-engine/internal/metrics"
)

// Entry is one trending item with its raw accumulated score.
type Entry struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

// Config contains trending store parameters.
type Config struct {
	// Key is the Redis sorted-set key for the rolling window.
	Key string

	// OpTimeout bounds each backend call.
	OpTimeout time.Duration

	// Window and Buckets shape the in-process fallback.
	Window  time.Duration
	Buckets int
}

// Backend is the subset of Redis sorted-set operations the store uses.
// *redis.Client satisfies it; tests substitute doubles.
type Backend interface {
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
}

// Store is the trending popularity store. It is safe for concurrent use.
type Store struct {
	logger  zerolog.Logger
	key     string
	client  Backend
	breaker *gobreaker.CircuitBreaker[interface{}]
	timeout time.Duration
	window  *Window
}

// New creates a trending store. client may be nil, in which case only the
// in-process window is used (degraded mode).
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(client Backend, cfg Config, logger zerolog.Logger) *Store {
	if cfg.Key == "" {
		cfg.Key = "trending:24h"
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 50 * time.Millisecond
	}

	return &Store{
		logger:  logger.With().Str("component", "trending").Logger(),
		key:     cfg.Key,
		client:  client,
		breaker: newBreaker("trending-redis"),
		timeout: cfg.OpTimeout,
		window:  NewWindow(cfg.Window, cfg.Buckets),
	}
}

// newBreaker builds the circuit breaker guarding backend calls. Five
// consecutive failures open it; it probes again after 30 seconds.
func newBreaker(name string) *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// Increment atomically adds amount to a product's trending score. Called
// on product views and purchases. Backend failures are absorbed: the
// in-process window always records the increment.
func (s *Store) Increment(ctx context.Context, productID string, amount float64) {
	metrics.TrendingIncrements.Inc()

	// The window is both the fallback and the outage-survival mirror.
	s.window.Increment(productID, amount)

	if s.client == nil {
		return
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.client.ZIncrBy(opCtx, s.key, amount, productID).Result()
	})
	if err != nil {
		metrics.TrendingBackendErrors.Inc()
		s.logger.Debug().Err(err).Str("product", productID).Msg("trending backend increment failed")
	}
}

// TopK returns up to k entries ordered by raw score descending. Backend
// failures fall back to the in-process window; the caller never sees an
// error, only data.
func (s *Store) TopK(ctx context.Context, k int) []Entry {
	if k <= 0 {
		return nil
	}

	if s.client != nil {
		result, err := s.breaker.Execute(func() (interface{}, error) {
			opCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return s.client.ZRevRangeWithScores(opCtx, s.key, 0, int64(k-1)).Result()
		})
		if err == nil {
			zs, ok := result.([]redis.Z)
			if ok {
				return zToEntries(zs)
			}
		} else {
			metrics.TrendingBackendErrors.Inc()
			s.logger.Debug().Err(err).Msg("trending backend read failed, serving window")
		}
	}

	return s.window.TopK(k)
}

// zToEntries converts redis sorted-set members to entries.
func zToEntries(zs []redis.Z) []Entry {
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{ProductID: id, Score: z.Score})
	}
	return entries
}
