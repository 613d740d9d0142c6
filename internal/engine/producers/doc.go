// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package producers implements the four signal producers of the hybrid
// ensemble: collaborative filtering, content-based filtering, contextual
// boosts, and trending popularity.
//
// Producers are cold-start tolerant: a user or store the signal cannot
// speak to yields an empty score map, not an error. The expensive
// per-user signals (collaborative, content) memoize their results through
// the compute cache.
package producers
