// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package config defines the engine configuration and loads it with
// Koanf v2 from layered sources: built-in defaults, an optional YAML
// config file, and environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the recommendation service.
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	Server      ServerConfig      `koanf:"server"`
	Redis       RedisConfig       `koanf:"redis"`
	Engine      EngineConfig      `koanf:"engine"`
	Cache       CacheConfig       `koanf:"cache"`
	Trending    TrendingConfig    `koanf:"trending"`
	Experiments ExperimentsConfig `koanf:"experiments"`
	Store       StoreConfig       `koanf:"store"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// ServerConfig controls the observability listener (prometheus /metrics).
type ServerConfig struct {
	MetricsAddr     string        `koanf:"metrics_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RedisConfig configures the shared Redis backend used by the trending
// store and the compute cache. An unreachable backend is not an error:
// both components degrade to their in-process fallbacks.
type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db" validate:"gte=0"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
	// OpTimeout bounds every per-call backend operation.
	OpTimeout time.Duration `koanf:"op_timeout"`
}

// EngineConfig contains the scoring pipeline parameters.
type EngineConfig struct {
	// Weights defines the default blend when no experiment overrides it.
	Weights WeightsConfig `koanf:"weights"`

	// MMRLambda is the default relevance/diversity trade-off.
	// 1.0 = pure relevance, 0.0 = pure diversity.
	MMRLambda float64 `koanf:"mmr_lambda" validate:"gte=0,lte=1"`

	// ProducerTimeout bounds a single signal producer invocation.
	ProducerTimeout time.Duration `koanf:"producer_timeout"`

	// TrendingTopK is how many trending entries the trending producer reads.
	TrendingTopK int `koanf:"trending_top_k" validate:"gte=1"`

	// DefaultN is the number of recommendations returned when the request
	// does not specify one.
	DefaultN int `koanf:"default_n" validate:"gte=1"`

	// MaxN caps the number of recommendations per request.
	MaxN int `koanf:"max_n" validate:"gte=1"`
}

// WeightsConfig is the per-signal blend. Weights are used as-is; they are
// not required to sum to 1.
type WeightsConfig struct {
	Collaborative float64 `koanf:"collaborative" validate:"gte=0"`
	Content       float64 `koanf:"content" validate:"gte=0"`
	Contextual    float64 `koanf:"contextual" validate:"gte=0"`
	Trending      float64 `koanf:"trending" validate:"gte=0"`
}

// CacheConfig configures the per-(user, producer) compute cache.
type CacheConfig struct {
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries" validate:"gte=1"`
}

// TrendingConfig configures the trending popularity store.
type TrendingConfig struct {
	// Key is the Redis sorted-set key holding the rolling window.
	Key string `koanf:"key"`

	// Window and Buckets shape the in-process fallback's rolling window.
	Window  time.Duration `koanf:"window"`
	Buckets int           `koanf:"buckets" validate:"gte=1"`
}

// ExperimentsConfig names the experiments the engine consults per request.
type ExperimentsConfig struct {
	// WeightsExperiment supplies per-variant signal weights.
	WeightsExperiment string `koanf:"weights_experiment"`

	// DiversityExperiment supplies the per-variant MMR lambda.
	DiversityExperiment string `koanf:"diversity_experiment"`
}

// StoreConfig points at the pre-computed model files loaded at startup.
type StoreConfig struct {
	ProductVectorsPath string `koanf:"product_vectors_path"`
	UserVectorsPath    string `koanf:"user_vectors_path"`
	CatalogPath        string `koanf:"catalog_path"`
	HistoryPath        string `koanf:"history_path"`
}

// Default returns a Config with production defaults. Weight defaults match
// the control variant of the reference weight experiment.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			MetricsAddr:     ":9464",
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DB:          0,
			DialTimeout: 2 * time.Second,
			OpTimeout:   50 * time.Millisecond,
		},
		Engine: EngineConfig{
			Weights: WeightsConfig{
				Collaborative: 0.4,
				Content:       0.3,
				Contextual:    0.2,
				Trending:      0.1,
			},
			MMRLambda:       0.7,
			ProducerTimeout: 50 * time.Millisecond,
			TrendingTopK:    100,
			DefaultN:        10,
			MaxN:            100,
		},
		Cache: CacheConfig{
			TTL:        300 * time.Second,
			MaxEntries: 10000,
		},
		Trending: TrendingConfig{
			Key:     "trending:24h",
			Window:  24 * time.Hour,
			Buckets: 24,
		},
		Experiments: ExperimentsConfig{
			WeightsExperiment:   "rec_algorithm_v3",
			DiversityExperiment: "diversity_test",
		},
		Store: StoreConfig{
			ProductVectorsPath: "models/product_vectors.json",
			UserVectorsPath:    "models/user_vectors.json",
			CatalogPath:        "models/catalog.json",
			HistoryPath:        "models/history.json",
		},
	}
}

// Validate checks struct tags and semantic constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if c.Engine.MaxN < c.Engine.DefaultN {
		return fmt.Errorf("engine.max_n must be >= engine.default_n, got %d < %d", c.Engine.MaxN, c.Engine.DefaultN)
	}
	if c.Engine.ProducerTimeout <= 0 {
		return fmt.Errorf("engine.producer_timeout must be positive, got %v", c.Engine.ProducerTimeout)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.Trending.Window <= 0 {
		return fmt.Errorf("trending.window must be positive, got %v", c.Trending.Window)
	}
	if c.Redis.OpTimeout <= 0 {
		return fmt.Errorf("redis.op_timeout must be positive, got %v", c.Redis.OpTimeout)
	}

	return nil
}
