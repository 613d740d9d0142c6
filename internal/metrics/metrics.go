// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package metrics exposes Prometheus instrumentation for the scoring
// pipeline, the shared stores, and the experiment subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline

	RecommendRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	RecommendFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_fallbacks_total",
			Help: "Recommendation requests served by the trending-only fallback",
		},
	)

	ProducerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "producer_duration_seconds",
			Help:    "Per-producer scoring latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"producer"},
	)

	ProducerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "producer_errors_total",
			Help: "Signal producer failures absorbed by the fail-soft policy",
		},
		[]string{"producer"},
	)

	// Compute cache

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compute_cache_hits_total",
			Help: "Compute cache hits",
		},
		[]string{"backend"}, // "redis" or "local"
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compute_cache_misses_total",
			Help: "Compute cache misses",
		},
	)

	// Trending store

	TrendingIncrements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trending_increments_total",
			Help: "Trending score increments applied",
		},
	)

	TrendingBackendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trending_backend_errors_total",
			Help: "Trending backend call failures (served by fallback instead)",
		},
	)

	// Experiments

	ExperimentAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_assignments_total",
			Help: "Variant assignments by experiment",
		},
		[]string{"experiment", "variant"},
	)

	ExperimentEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_events_total",
			Help: "Tracked experiment events by type",
		},
		[]string{"experiment", "event_type"},
	)
)
