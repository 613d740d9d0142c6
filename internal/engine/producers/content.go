// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package producers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/umair801/eCommerce-recommendation-engine/internal/cache"
	"github.com/umair801/eCommerce-recommendation-engine/internal/engine"
	"github.com/umair801/eCommerce-recommendation-engine/internal/store"
)

// Content scores products by cosine similarity between each product
// vector and a taste profile built from the user's interaction history
// (the element-wise mean of the vectors of products they touched).
type Content struct {
	features *store.FeatureStore
	history  *store.HistoryStore
	cache    *cache.ComputeCache
	logger   zerolog.Logger
}

// NewContent creates the content-based filtering producer. cache may be
// nil to disable memoization.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContent(features *store.FeatureStore, history *store.HistoryStore, c *cache.ComputeCache, logger zerolog.Logger) *Content {
	return &Content{
		features: features,
		history:  history,
		cache:    c,
		logger:   logger.With().Str("producer", "content").Logger(),
	}
}

// Name returns the signal identifier.
func (p *Content) Name() string { return "content" }

// Score returns profile-similarity scores for every product with a
// vector. Users with no usable history score nothing.
func (p *Content) Score(ctx context.Context, userID string, _ engine.Context) (engine.ScoreMap, error) {
	if p.cache == nil {
		return p.compute(ctx, userID)
	}
	return p.cache.GetOrCompute(ctx, userID, p.Name(), func(ctx context.Context) (map[string]float64, error) {
		return p.compute(ctx, userID)
	})
}

func (p *Content) compute(_ context.Context, userID string) (engine.ScoreMap, error) {
	profile := p.userProfile(userID)
	if profile == nil {
		p.logger.Debug().Str("user_id", userID).Msg("no usable history for profile")
		return engine.ScoreMap{}, nil
	}

	scores := make(engine.ScoreMap)
	for productID, productVec := range p.features.ProductVectors() {
		scores[productID] = cosine(profile, productVec)
	}
	return scores, nil
}

// userProfile averages the vectors of history items known to the feature
// store; nil when nothing usable remains.
func (p *Content) userProfile(userID string) []float64 {
	interacted := p.history.History(userID)
	if len(interacted) == 0 {
		return nil
	}

	vectors := make([][]float64, 0, len(interacted))
	for _, productID := range interacted {
		if vec, ok := p.features.ProductVector(productID); ok {
			vectors = append(vectors, vec)
		}
	}
	return meanVector(vectors)
}
