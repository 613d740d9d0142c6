// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package producers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/umair801/eCommerce-recommendation-engine/internal/engine"
	"github.com/umair801/eCommerce-recommendation-engine/internal/store"
)

// Boost magnitudes per contextual rule. Rules stack: a product matching
// several rules accumulates every matching boost.
const (
	seasonBoost   = 0.3
	deviceBoost   = 0.2
	locationBoost = 0.25
	daypartBoost  = 0.15
)

// Contextual scores products by rule-based boosts derived from the
// request context: season, device class, location, and hour of day.
type Contextual struct {
	features *store.FeatureStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewContextual creates the contextual boost producer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContextual(features *store.FeatureStore, logger zerolog.Logger) *Contextual {
	return &Contextual{
		features: features,
		logger:   logger.With().Str("producer", "contextual").Logger(),
		now:      time.Now,
	}
}

// Name returns the signal identifier.
func (p *Contextual) Name() string { return "contextual" }

// Score returns stacked boosts for products matching the request context.
func (p *Contextual) Score(_ context.Context, _ string, rctx engine.Context) (engine.ScoreMap, error) {
	boosts := make(engine.ScoreMap)

	season := rctx.Season
	if season == "" {
		season = CurrentSeason(p.now())
	}
	for _, productID := range p.features.SeasonalProducts(season) {
		boosts[productID] += seasonBoost
	}

	if rctx.Device == "mobile" {
		for _, productID := range p.features.MobileFriendlyProducts() {
			boosts[productID] += deviceBoost
		}
	}

	if rctx.Location != "" {
		for _, productID := range p.features.RegionalProducts(rctx.Location) {
			boosts[productID] += locationBoost
		}
	}

	for _, productID := range p.features.DaypartProducts(rctx.Hour) {
		boosts[productID] += daypartBoost
	}

	return boosts, nil
}

// CurrentSeason maps a point in time to a retail season by month.
func CurrentSeason(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}
