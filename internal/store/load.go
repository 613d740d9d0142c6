// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package store

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Paths names the model files produced by the external training pipeline.
// Any path may be empty or missing; the corresponding data is simply absent
// and the dependent producers return empty signals.
type Paths struct {
	ProductVectors string
	UserVectors    string
	Catalog        string
	History        string
}

// Load builds the feature and history stores from pre-computed model files.
// Missing or unreadable files are logged and skipped, never fatal: the
// engine serves degraded rather than refusing to start.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Load(paths Paths, logger zerolog.Logger) (*FeatureStore, *HistoryStore) {
	logger = logger.With().Str("component", "store").Logger()

	fs := NewFeatureStore()
	hs := NewHistoryStore()

	if vectors, err := loadVectorFile(paths.ProductVectors); err != nil {
		logger.Warn().Err(err).Str("path", paths.ProductVectors).Msg("product vectors unavailable")
	} else {
		fs.productVectors = vectors
		logger.Info().Int("products", len(vectors)).Msg("loaded product vectors")
	}

	if vectors, err := loadVectorFile(paths.UserVectors); err != nil {
		logger.Warn().Err(err).Str("path", paths.UserVectors).Msg("user vectors unavailable")
	} else {
		fs.userVectors = vectors
		logger.Info().Int("users", len(vectors)).Msg("loaded user vectors")
	}

	if products, err := loadCatalogFile(paths.Catalog); err != nil {
		logger.Warn().Err(err).Str("path", paths.Catalog).Msg("catalog unavailable")
	} else {
		for _, p := range products {
			fs.products[p.ID] = p
		}
		logger.Info().Int("entries", len(products)).Msg("loaded catalog")
	}

	if history, err := loadHistoryFile(paths.History); err != nil {
		logger.Warn().Err(err).Str("path", paths.History).Msg("interaction history unavailable")
	} else {
		hs.history = history
		logger.Info().Int("users", len(history)).Msg("loaded interaction history")
	}

	return fs, hs
}

func loadVectorFile(path string) (map[string][]float64, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	vectors := make(map[string][]float64)
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return vectors, nil
}

func loadCatalogFile(path string) ([]Product, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return products, nil
}

func loadHistoryFile(path string) (map[string][]string, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	history := make(map[string][]string)
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return history, nil
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("no path configured")
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
