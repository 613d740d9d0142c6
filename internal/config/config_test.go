// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}

	if cfg.Cache.TTL != 300*time.Second {
		t.Errorf("default cache TTL = %v, want 300s", cfg.Cache.TTL)
	}
	if cfg.Engine.Weights.Collaborative != 0.4 {
		t.Errorf("default collaborative weight = %v, want 0.4", cfg.Engine.Weights.Collaborative)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "mmr lambda above one",
			mutate: func(c *Config) { c.Engine.MMRLambda = 1.5 },
		},
		{
			name:   "negative weight",
			mutate: func(c *Config) { c.Engine.Weights.Trending = -0.1 },
		},
		{
			name:   "max_n below default_n",
			mutate: func(c *Config) { c.Engine.MaxN = 5; c.Engine.DefaultN = 10 },
		},
		{
			name:   "zero cache ttl",
			mutate: func(c *Config) { c.Cache.TTL = 0 },
		},
		{
			name:   "zero producer timeout",
			mutate: func(c *Config) { c.Engine.ProducerTimeout = 0 },
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"REDIS_ADDR", "redis.addr"},
		{"ENGINE_MMR_LAMBDA", "engine.mmr_lambda"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadWithFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := []byte("engine:\n  mmr_lambda: 0.5\n  default_n: 15\n")
	if err := os.WriteFile(path, yamlBody, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("ENGINE_DEFAULT_N", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Engine.MMRLambda != 0.5 {
		t.Errorf("file override: mmr_lambda = %v, want 0.5", cfg.Engine.MMRLambda)
	}
	// Environment beats file.
	if cfg.Engine.DefaultN != 25 {
		t.Errorf("env override: default_n = %d, want 25", cfg.Engine.DefaultN)
	}
	// Untouched values keep defaults.
	if cfg.Trending.Key != "trending:24h" {
		t.Errorf("default survived layering: trending.key = %q", cfg.Trending.Key)
	}
}
