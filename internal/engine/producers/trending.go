// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package producers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/umair801/eCommerce-recommendation-engine/internal/engine"
	"github.com/umair801/eCommerce-recommendation-engine/internal/trending"
)

// defaultTopK bounds the trending read when no limit is configured.
const defaultTopK = 100

// Trending scores products by live popularity, normalized by the current
// maximum so the signal stays in [0, 1] regardless of traffic volume.
type Trending struct {
	store  *trending.Store
	topK   int
	logger zerolog.Logger
}

// NewTrending creates the trending producer reading up to topK entries.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrending(s *trending.Store, topK int, logger zerolog.Logger) *Trending {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Trending{
		store:  s,
		topK:   topK,
		logger: logger.With().Str("producer", "trending").Logger(),
	}
}

// Name returns the signal identifier.
func (p *Trending) Name() string { return "trending" }

// Score returns max-normalized popularity scores, empty when nothing is
// trending yet.
func (p *Trending) Score(ctx context.Context, _ string, _ engine.Context) (engine.ScoreMap, error) {
	entries := p.store.TopK(ctx, p.topK)
	if len(entries) == 0 {
		return engine.ScoreMap{}, nil
	}

	maxScore := entries[0].Score
	for _, e := range entries[1:] {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	if maxScore <= 0 {
		return engine.ScoreMap{}, nil
	}

	scores := make(engine.ScoreMap, len(entries))
	for _, e := range entries {
		scores[e.ProductID] = e.Score / maxScore
	}
	return scores, nil
}
