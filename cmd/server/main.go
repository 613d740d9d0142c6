// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package main is the entry point for the recommendation engine server.
//
// The process wires the scoring pipeline together in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (Koanf v2)
//  2. Redis: shared backend for the trending store and compute cache;
//     an unreachable Redis is a warning, not a startup failure, and both
//     components run on their in-process fallbacks
//  3. Feature/history stores: pre-computed model files loaded from JSON
//  4. Experiments: registry seeded with the reference A/B tests
//  5. Engine: the four signal producers plus the MMR reranker
//  6. Metrics: Prometheus /metrics endpoint
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (CONFIG_PATH or
// config.yaml), built-in defaults.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM, draining the
// metrics listener within the configured timeout.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/umair801/eCommerce-recommendation-engine/internal/cache"
	"github.com/umair801/eCommerce-recommendation-engine/internal/config"
	"github.com/umair801/eCommerce-recommendation-engine/internal/engine"
	"github.com/umair801/eCommerce-recommendation-engine/internal/engine/producers"
	"github.com/umair801/eCommerce-recommendation-engine/internal/engine/reranking"
	"github.com/umair801/eCommerce-recommendation-engine/internal/experiment"
	"github.com/umair801/eCommerce-recommendation-engine/internal/logging"
	"github.com/umair801/eCommerce-recommendation-engine/internal/store"
	"github.com/umair801/eCommerce-recommendation-engine/internal/trending"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger := logging.Logger()

	logging.Info().
		Str("redis_addr", cfg.Redis.Addr).
		Str("metrics_addr", cfg.Server.MetricsAddr).
		Msg("starting recommendation engine")

	// Redis is shared by the trending store and the compute cache. When
	// it is unreachable both run on their in-process fallbacks.
	rdb := connectRedis(cfg)
	var trendingBackend trending.Backend
	var cacheBackend cache.Backend
	if rdb != nil {
		trendingBackend = rdb
		cacheBackend = rdb
		defer func() {
			if err := rdb.Close(); err != nil {
				logging.Error().Err(err).Msg("error closing redis client")
			}
		}()
	}

	features, history := store.Load(store.Paths{
		ProductVectors: cfg.Store.ProductVectorsPath,
		UserVectors:    cfg.Store.UserVectorsPath,
		Catalog:        cfg.Store.CatalogPath,
		History:        cfg.Store.HistoryPath,
	}, logger)

	trendingStore := trending.New(trendingBackend, trending.Config{
		Key:       cfg.Trending.Key,
		OpTimeout: cfg.Redis.OpTimeout,
		Window:    cfg.Trending.Window,
		Buckets:   cfg.Trending.Buckets,
	}, logger)

	computeCache := cache.New(cacheBackend, cache.Config{
		TTL:        cfg.Cache.TTL,
		MaxEntries: cfg.Cache.MaxEntries,
		OpTimeout:  cfg.Redis.OpTimeout,
	}, logger)

	registry := experiment.NewRegistry(logger)
	if err := registry.Seed(); err != nil {
		logging.Fatal().Err(err).Msg("failed to seed experiments")
	}

	trendingProducer := producers.NewTrending(trendingStore, cfg.Engine.TrendingTopK, logger)
	ensemble := []engine.Producer{
		producers.NewCollaborative(features, computeCache, logger),
		producers.NewContent(features, history, computeCache, logger),
		producers.NewContextual(features, logger),
		trendingProducer,
	}

	eng, err := engine.New(engine.Config{
		Weights: engine.Weights{
			Collaborative: cfg.Engine.Weights.Collaborative,
			Content:       cfg.Engine.Weights.Content,
			Contextual:    cfg.Engine.Weights.Contextual,
			Trending:      cfg.Engine.Weights.Trending,
		},
		MMRLambda:           cfg.Engine.MMRLambda,
		ProducerTimeout:     cfg.Engine.ProducerTimeout,
		DefaultN:            cfg.Engine.DefaultN,
		MaxN:                cfg.Engine.MaxN,
		WeightsExperiment:   cfg.Experiments.WeightsExperiment,
		DiversityExperiment: cfg.Experiments.DiversityExperiment,
	}, ensemble, reranking.NewMMR(features), trendingProducer, registry, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build engine")
	}

	logging.Info().
		Int("producers", len(ensemble)).
		Strs("experiments", registry.List()).
		Msg("engine ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveMetrics(ctx, cfg)

	m := eng.GetMetrics()
	logging.Info().
		Int64("requests", m.RequestCount).
		Int64("fallbacks", m.FallbackCount).
		Int64("errors", m.ErrorCount).
		Msg("shutdown complete")
}

// connectRedis dials Redis and verifies it with a bounded ping. Returns
// nil when the backend is unreachable.
func connectRedis(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logging.Warn().Err(err).Msg("redis unreachable, using in-process fallbacks")
		_ = rdb.Close()
		return nil
	}

	logging.Info().Str("addr", cfg.Redis.Addr).Msg("redis connection established")
	return rdb
}

// serveMetrics runs the Prometheus endpoint until ctx is canceled, then
// drains it within the configured shutdown timeout.
func serveMetrics(ctx context.Context, cfg *config.Config) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutting down")
	case err := <-errCh:
		logging.Error().Err(err).Msg("metrics server failed")
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("metrics server shutdown error")
	}
}
