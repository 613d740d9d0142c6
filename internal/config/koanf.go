// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recommender/config.yaml",
	"/etc/recommender/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration with layered sources (highest wins):
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored rather than guessed at.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",

	"metrics_addr":     "server.metrics_addr",
	"shutdown_timeout": "server.shutdown_timeout",

	"redis_addr":         "redis.addr",
	"redis_password":     "redis.password",
	"redis_db":           "redis.db",
	"redis_dial_timeout": "redis.dial_timeout",
	"redis_op_timeout":   "redis.op_timeout",

	"engine_weight_collaborative": "engine.weights.collaborative",
	"engine_weight_content":       "engine.weights.content",
	"engine_weight_contextual":    "engine.weights.contextual",
	"engine_weight_trending":      "engine.weights.trending",
	"engine_mmr_lambda":           "engine.mmr_lambda",
	"engine_producer_timeout":     "engine.producer_timeout",
	"engine_trending_top_k":       "engine.trending_top_k",
	"engine_default_n":            "engine.default_n",
	"engine_max_n":                "engine.max_n",

	"cache_ttl":         "cache.ttl",
	"cache_max_entries": "cache.max_entries",

	"trending_key":     "trending.key",
	"trending_window":  "trending.window",
	"trending_buckets": "trending.buckets",

	"weights_experiment":   "experiments.weights_experiment",
	"diversity_experiment": "experiments.diversity_experiment",

	"product_vectors_path": "store.product_vectors_path",
	"user_vectors_path":    "store.user_vectors_path",
	"catalog_path":         "store.catalog_path",
	"history_path":         "store.history_path",
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unknown variables map to "" and are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
