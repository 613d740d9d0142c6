// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/umair801/eCommerce-recommendation-engine/internal/metrics"
)

// ErrNoProducers is returned by New when the ensemble is empty.
var ErrNoProducers = errors.New("no producers registered")

// Config contains the scoring pipeline parameters.
type Config struct {
	// Weights is the default blend when no experiment overrides it.
	Weights Weights

	// MMRLambda is the default relevance/diversity trade-off.
	MMRLambda float64

	// ProducerTimeout bounds a single producer invocation.
	ProducerTimeout time.Duration

	// DefaultN and MaxN shape the result count.
	DefaultN int
	MaxN     int

	// WeightsExperiment and DiversityExperiment name the experiments the
	// engine consults per request. Empty disables the lookup.
	WeightsExperiment   string
	DiversityExperiment string
}

// Engine blends producer signals into ranked recommendations.
// It is safe for concurrent use.
type Engine struct {
	cfg       Config
	logger    zerolog.Logger
	producers []Producer
	reranker  Reranker
	fallback  Producer
	assigner  VariantAssigner

	requestCount  atomic.Int64
	fallbackCount atomic.Int64
	errorCount    atomic.Int64
}

// New creates an engine over the given producer ensemble. fallback serves
// trending-only results when the ensemble produces nothing; assigner may
// be nil, in which case configured defaults apply to every request.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(
	cfg Config,
	producers []Producer,
	reranker Reranker,
	fallback Producer,
	assigner VariantAssigner,
	logger zerolog.Logger,
) (*Engine, error) {
	if len(producers) == 0 {
		return nil, ErrNoProducers
	}

	if cfg.ProducerTimeout <= 0 {
		cfg.ProducerTimeout = 50 * time.Millisecond
	}
	if cfg.DefaultN <= 0 {
		cfg.DefaultN = 10
	}
	if cfg.MaxN < cfg.DefaultN {
		cfg.MaxN = cfg.DefaultN
	}
	if cfg.MMRLambda <= 0 || cfg.MMRLambda > 1 {
		cfg.MMRLambda = 0.7
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger.With().Str("component", "engine").Logger(),
		producers: producers,
		reranker:  reranker,
		fallback:  fallback,
		assigner:  assigner,
	}, nil
}

// Recommend generates up to req.N recommendations. Producer failures are
// absorbed: the worst outcome is an empty list, never an error.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)
	metrics.RecommendRequests.Inc()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()

	weights, weightsVariant := e.resolveWeights(req.UserID)
	lambda, diversityVariant := e.resolveLambda(req.UserID)

	results := e.runProducers(ctx, req)
	combined, producersUsed := e.combine(results, weights, req.Exclude)

	if len(combined) == 0 {
		logger.Warn().Msg("all signals empty, serving trending fallback")
		return e.fallbackResponse(ctx, req, weightsVariant, diversityVariant, start), nil
	}

	items := toScoredProducts(combined, results)
	sortByRelevance(items)

	if e.reranker != nil {
		items = e.reranker.Rerank(ctx, items, req.N, lambda)
	}
	if len(items) > req.N {
		items = items[:req.N]
	}

	resp := &Response{
		Products:        items,
		TotalCandidates: len(combined),
		Metadata: ResponseMetadata{
			RequestID:        req.RequestID,
			UserID:           req.UserID,
			ProducersUsed:    producersUsed,
			WeightsVariant:   weightsVariant,
			DiversityVariant: diversityVariant,
			LatencyMS:        time.Since(start).Milliseconds(),
			Timestamp:        time.Now(),
		},
	}

	logger.Debug().
		Int("candidates", resp.TotalCandidates).
		Int("returned", len(resp.Products)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// GetMetrics returns a snapshot of the engine counters.
func (e *Engine) GetMetrics() Metrics {
	return Metrics{
		RequestCount:  e.requestCount.Load(),
		FallbackCount: e.fallbackCount.Load(),
		ErrorCount:    e.errorCount.Load(),
	}
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.N <= 0 {
		req.N = e.cfg.DefaultN
	}
	if req.N > e.cfg.MaxN {
		req.N = e.cfg.MaxN
	}
	return req
}

// resolveWeights returns the blend weights for a user, honoring the
// active weights experiment when one is configured.
func (e *Engine) resolveWeights(userID string) (Weights, string) {
	if e.assigner == nil || e.cfg.WeightsExperiment == "" {
		return e.cfg.Weights, ""
	}

	variant := e.assigner.GetVariant(userID, e.cfg.WeightsExperiment)
	vc, ok := e.assigner.VariantConfig(e.cfg.WeightsExperiment, variant)
	if !ok {
		return e.cfg.Weights, variant
	}

	return Weights{
		Collaborative: vc.CFWeight,
		Content:       vc.CBWeight,
		Contextual:    vc.ContextWeight,
		Trending:      vc.TrendingWeight,
	}, variant
}

// resolveLambda returns the MMR lambda for a user, honoring the active
// diversity experiment when one is configured.
func (e *Engine) resolveLambda(userID string) (float64, string) {
	if e.assigner == nil || e.cfg.DiversityExperiment == "" {
		return e.cfg.MMRLambda, ""
	}

	variant := e.assigner.GetVariant(userID, e.cfg.DiversityExperiment)
	vc, ok := e.assigner.VariantConfig(e.cfg.DiversityExperiment, variant)
	if !ok {
		return e.cfg.MMRLambda, variant
	}
	return vc.MMRLambda, variant
}

// producerResult holds one producer's outcome.
type producerResult struct {
	name   string
	scores ScoreMap
	err    error
}

// runProducers executes every producer in parallel, each with its own
// bounded timeout and result slot.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runProducers(ctx context.Context, req Request) []producerResult {
	results := make([]producerResult, len(e.producers))
	var wg sync.WaitGroup

	for i, p := range e.producers {
		wg.Add(1)
		go func(idx int, p Producer) {
			defer wg.Done()
			results[idx] = e.runSingleProducer(ctx, req, p)
		}(i, p)
	}

	wg.Wait()
	return results
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runSingleProducer(ctx context.Context, req Request, p Producer) producerResult {
	start := time.Now()
	pCtx, cancel := context.WithTimeout(ctx, e.cfg.ProducerTimeout)
	defer cancel()

	scores, err := p.Score(pCtx, req.UserID, req.Context)
	metrics.ProducerDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		e.errorCount.Add(1)
		metrics.ProducerErrors.WithLabelValues(p.Name()).Inc()
		e.logger.Warn().
			Str("producer", p.Name()).
			Err(err).
			Msg("producer failed")
	}

	return producerResult{name: p.Name(), scores: scores, err: err}
}

// combine folds producer score maps into one weighted map, dropping
// excluded products and failed producers.
func (e *Engine) combine(results []producerResult, weights Weights, exclude []string) (ScoreMap, []string) {
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	combined := make(ScoreMap)
	producersUsed := make([]string, 0, len(results))

	for _, r := range results {
		if r.err != nil || len(r.scores) == 0 {
			continue
		}
		weight := weights.ForProducer(r.name)
		if weight <= 0 {
			continue
		}
		producersUsed = append(producersUsed, r.name)

		for id, score := range r.scores {
			if _, skip := excluded[id]; skip {
				continue
			}
			combined[id] += weight * score
		}
	}

	return combined, producersUsed
}

// toScoredProducts converts the combined map to items carrying per-producer
// breakdowns.
func toScoredProducts(combined ScoreMap, results []producerResult) []ScoredProduct {
	items := make([]ScoredProduct, 0, len(combined))
	for id, score := range combined {
		breakdown := make(map[string]float64)
		for _, r := range results {
			if r.err != nil {
				continue
			}
			if raw, ok := r.scores[id]; ok {
				breakdown[r.name] = raw
			}
		}
		items = append(items, ScoredProduct{ProductID: id, Score: score, Scores: breakdown})
	}
	return items
}

// sortByRelevance orders items by score descending, product ID ascending
// on ties, so identical inputs always rank identically.
func sortByRelevance(items []ScoredProduct) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ProductID < items[j].ProductID
	})
}

// fallbackResponse serves trending-only results when the ensemble came
// back empty. An empty trending signal yields an empty list, not an error.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) fallbackResponse(ctx context.Context, req Request, weightsVariant, diversityVariant string, start time.Time) *Response {
	e.fallbackCount.Add(1)
	metrics.RecommendFallbacks.Inc()

	items := []ScoredProduct{}
	if e.fallback != nil {
		scores, err := e.fallback.Score(ctx, req.UserID, req.Context)
		if err != nil {
			e.errorCount.Add(1)
			e.logger.Warn().Err(err).Msg("trending fallback failed")
		}

		excluded := make(map[string]struct{}, len(req.Exclude))
		for _, id := range req.Exclude {
			excluded[id] = struct{}{}
		}
		for id, score := range scores {
			if _, skip := excluded[id]; skip {
				continue
			}
			items = append(items, ScoredProduct{ProductID: id, Score: score})
		}
		sortByRelevance(items)
		if len(items) > req.N {
			items = items[:req.N]
		}
	}

	return &Response{
		Products:        items,
		TotalCandidates: len(items),
		Metadata: ResponseMetadata{
			RequestID:        req.RequestID,
			UserID:           req.UserID,
			ProducersUsed:    []string{},
			WeightsVariant:   weightsVariant,
			DiversityVariant: diversityVariant,
			Fallback:         true,
			LatencyMS:        time.Since(start).Milliseconds(),
			Timestamp:        time.Now(),
		},
	}
}
