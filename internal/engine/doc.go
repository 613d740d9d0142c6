// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package engine implements the hybrid recommendation pipeline.
//
// # Architecture
//
// Four signal producers score products independently and in parallel:
//
//   - Collaborative Filtering: latent-factor dot product
//   - Content-Based Filtering: cosine similarity against a history profile
//   - Contextual Boosts: season / device / location / time-of-day rules
//   - Trending: normalized live popularity
//
// The engine combines the producer score maps as a weighted sum, excludes
// requested products, and re-ranks the blended list with MMR (Maximal
// Marginal Relevance) for diversity.
//
// # Failure Policy
//
// A producer failure is never a request failure. Failed or timed-out
// producers contribute nothing; if every producer comes back empty the
// engine serves trending-only results, and if even that is empty it
// returns an empty list. Recommend returns a non-nil error only for
// programmer mistakes (no producers registered).
//
// # Experiments
//
// Blend weights and the MMR lambda are resolved per request from the
// active experiments, so users in different variants are scored with
// different parameters. With no assigner wired, configured defaults apply.
//
// # Usage
//
//	eng, err := engine.New(cfg, producers, reranker, fallback, assigner, logger)
//	resp, err := eng.Recommend(ctx, engine.Request{
//	    UserID: "user_42",
//	    N:      10,
//	})
//
// The engine is safe for concurrent use.
package engine
