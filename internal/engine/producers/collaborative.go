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

// Collaborative scores products by the dot product of the user's latent
// vector with each product's latent vector. Vectors come from an offline
// matrix factorization run loaded into the feature store at startup.
type Collaborative struct {
	features *store.FeatureStore
	cache    *cache.ComputeCache
	logger   zerolog.Logger
}

// NewCollaborative creates the collaborative filtering producer. cache may
// be nil to disable memoization.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCollaborative(features *store.FeatureStore, c *cache.ComputeCache, logger zerolog.Logger) *Collaborative {
	return &Collaborative{
		features: features,
		cache:    c,
		logger:   logger.With().Str("producer", "collaborative").Logger(),
	}
}

// Name returns the signal identifier.
func (p *Collaborative) Name() string { return "collaborative" }

// Score returns dot-product scores for every product with a latent vector.
// A user absent from the factorization (cold start) scores nothing.
func (p *Collaborative) Score(ctx context.Context, userID string, _ engine.Context) (engine.ScoreMap, error) {
	if p.cache == nil {
		return p.compute(ctx, userID)
	}
	return p.cache.GetOrCompute(ctx, userID, p.Name(), func(ctx context.Context) (map[string]float64, error) {
		return p.compute(ctx, userID)
	})
}

func (p *Collaborative) compute(_ context.Context, userID string) (engine.ScoreMap, error) {
	userVec, ok := p.features.UserVector(userID)
	if !ok {
		p.logger.Debug().Str("user_id", userID).Msg("user not in factorization model")
		return engine.ScoreMap{}, nil
	}

	scores := make(engine.ScoreMap)
	for productID, productVec := range p.features.ProductVectors() {
		scores[productID] = dot(userVec, productVec)
	}
	return scores, nil
}
