// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package engine

import (
	"context"
	"time"

	"github.com/umair801/eCommerce-recommendation-engine/internal/experiment"
)

// ScoreMap maps product IDs to signal scores.
type ScoreMap map[string]float64

// Producer computes one signal's scores for a user. Implementations
// return an empty map when the signal is unavailable (cold start, empty
// store); errors are reserved for genuine failures and are absorbed by
// the engine.
type Producer interface {
	// Name returns the signal identifier ("collaborative", "content",
	// "contextual", "trending"). It keys the blend weight lookup.
	Name() string

	// Score returns scores for every product the signal can speak to.
	Score(ctx context.Context, userID string, rctx Context) (ScoreMap, error)
}

// Reranker reorders a relevance-ranked list for a secondary objective.
type Reranker interface {
	Name() string

	// Rerank returns up to n items. The input is sorted by relevance
	// descending; lambda balances relevance against the secondary
	// objective (1.0 = pure relevance).
	Rerank(ctx context.Context, items []ScoredProduct, n int, lambda float64) []ScoredProduct
}

// VariantAssigner is the subset of the experiment registry the engine
// consults per request. *experiment.Registry satisfies it.
type VariantAssigner interface {
	GetVariant(userID, experimentID string) string
	VariantConfig(experimentID, variant string) (experiment.VariantConfig, bool)
}

// Context carries the request-time signals the contextual producer reads.
type Context struct {
	// Device is the client device class ("mobile", "desktop", "tablet").
	Device string `json:"device,omitempty"`

	// Location is the user's region for inventory boosts.
	Location string `json:"location,omitempty"`

	// Season overrides clock-derived seasonality when set.
	Season string `json:"season,omitempty"`

	// Hour is the local hour of day (0-23).
	Hour int `json:"hour"`

	// PageType and Referrer describe where the request originated.
	PageType string `json:"page_type,omitempty"`
	Referrer string `json:"referrer,omitempty"`
}

// defaultHour is assumed when a raw context omits the hour.
const defaultHour = 12

// ParseContext builds a typed Context from the loosely-typed map clients
// send. Unknown keys are ignored; a missing hour defaults to midday.
func ParseContext(raw map[string]any) Context {
	rctx := Context{Hour: defaultHour}
	if raw == nil {
		return rctx
	}

	if v, ok := raw["device"].(string); ok {
		rctx.Device = v
	}
	if v, ok := raw["location"].(string); ok {
		rctx.Location = v
	}
	if v, ok := raw["season"].(string); ok {
		rctx.Season = v
	}
	if v, ok := raw["page_type"].(string); ok {
		rctx.PageType = v
	}
	if v, ok := raw["referrer"].(string); ok {
		rctx.Referrer = v
	}

	switch v := raw["hour"].(type) {
	case int:
		rctx.Hour = v
	case float64:
		rctx.Hour = int(v)
	}
	if rctx.Hour < 0 || rctx.Hour > 23 {
		rctx.Hour = defaultHour
	}

	return rctx
}

// Request is one recommendation request.
type Request struct {
	// UserID identifies the user to recommend for.
	UserID string `json:"user_id"`

	// Context carries request-time signals (device, location, hour).
	Context Context `json:"context"`

	// Exclude lists product IDs to remove from the results, typically
	// items already in the cart or recently purchased.
	Exclude []string `json:"exclude,omitempty"`

	// N is the number of recommendations to return. Zero means the
	// configured default; values above the configured maximum are capped.
	N int `json:"n,omitempty"`

	// RequestID is a unique identifier for tracing. Generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// ScoredProduct is one recommended product with its blended score.
type ScoredProduct struct {
	// ProductID identifies the product.
	ProductID string `json:"product_id"`

	// Score is the weighted blend of producer scores.
	Score float64 `json:"score"`

	// Scores is the per-producer breakdown.
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Response is a recommendation response.
type Response struct {
	// Products is the final ordered list.
	Products []ScoredProduct `json:"products"`

	// TotalCandidates is the number of distinct products scored before
	// exclusion and truncation.
	TotalCandidates int `json:"total_candidates"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the recommendations are for.
	UserID string `json:"user_id"`

	// ProducersUsed lists the producers that contributed scores.
	ProducersUsed []string `json:"producers_used"`

	// WeightsVariant and DiversityVariant are the experiment variants
	// the request was scored under.
	WeightsVariant   string `json:"weights_variant,omitempty"`
	DiversityVariant string `json:"diversity_variant,omitempty"`

	// Fallback indicates the trending-only fallback served this request.
	Fallback bool `json:"fallback"`

	// LatencyMS is the end-to-end latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// Weights is the per-signal blend, keyed by producer name via ForProducer.
type Weights struct {
	Collaborative float64
	Content       float64
	Contextual    float64
	Trending      float64
}

// ForProducer returns the weight for a producer name, 0 for unknown names.
func (w Weights) ForProducer(name string) float64 {
	switch name {
	case "collaborative":
		return w.Collaborative
	case "content":
		return w.Content
	case "contextual":
		return w.Contextual
	case "trending":
		return w.Trending
	default:
		return 0
	}
}

// Metrics is a point-in-time snapshot of engine counters.
type Metrics struct {
	// RequestCount is the total number of recommendation requests.
	RequestCount int64 `json:"request_count"`

	// FallbackCount is how many requests the trending-only fallback served.
	FallbackCount int64 `json:"fallback_count"`

	// ErrorCount is the total number of absorbed producer failures.
	ErrorCount int64 `json:"error_count"`
}
