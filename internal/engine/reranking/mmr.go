// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package reranking implements diversity post-processing for ranked
// recommendation lists.
package reranking

import (
	"context"
	"math"
	"sort"

	"github.com/umair801/eCommerce-recommendation-engine/internal/engine"
)

// VectorSource supplies the item vectors MMR measures similarity over.
// *store.FeatureStore satisfies it.
type VectorSource interface {
	ProductVector(id string) ([]float64, bool)
}

// MMR implements Maximal Marginal Relevance reranking. It balances
// relevance and diversity by iteratively selecting items that are both
// relevant and dissimilar to everything already selected:
//
//	MMR = lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected
//
// Selection is deterministic: the candidate order is relevance descending
// with product-ID ascending tie-breaks, and MMR ties keep the earlier
// (more relevant) candidate. Runtime is O(n*k) similarity computations.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	vectors VectorSource
}

// NewMMR creates an MMR reranker over the given item vectors.
func NewMMR(vectors VectorSource) *MMR {
	return &MMR{vectors: vectors}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string { return "mmr" }

// Rerank returns up to n items reordered for diversity. lambda is clamped
// to [0, 1]; 1.0 degenerates to plain relevance ranking.
func (m *MMR) Rerank(_ context.Context, items []engine.ScoredProduct, n int, lambda float64) []engine.ScoredProduct {
	if len(items) == 0 || n <= 0 {
		return []engine.ScoredProduct{}
	}
	if n > len(items) {
		n = len(items)
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}

	candidates := make([]engine.ScoredProduct, len(items))
	copy(candidates, items)
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ProductID < candidates[j].ProductID
	})

	if lambda >= 1 {
		return candidates[:n]
	}

	// First pick is always the most relevant item.
	selected := make([]engine.ScoredProduct, 0, n)
	selected = append(selected, candidates[0])
	remaining := candidates[1:]

	for len(selected) < n && len(remaining) > 0 {
		bestIdx := 0
		bestMMR := math.Inf(-1)

		for i, cand := range remaining {
			maxSim := 0.0
			for _, s := range selected {
				if sim := m.similarity(cand.ProductID, s.ProductID); sim > maxSim {
					maxSim = sim
				}
			}

			// Strict > keeps the earlier (more relevant) candidate on ties.
			if mmrScore := lambda*cand.Score - (1-lambda)*maxSim; mmrScore > bestMMR {
				bestMMR = mmrScore
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// similarity is the cosine similarity of two item vectors, 0 when either
// vector is missing or zero.
func (m *MMR) similarity(a, b string) float64 {
	vecA, okA := m.vectors.ProductVector(a)
	vecB, okB := m.vectors.ProductVector(b)
	if !okA || !okB {
		return 0
	}

	n := len(vecA)
	if len(vecB) < n {
		n = len(vecB)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += vecA[i] * vecB[i]
		normA += vecA[i] * vecA[i]
		normB += vecB[i] * vecB[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
