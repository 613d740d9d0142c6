// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package producers

import "math"

// dot returns the dot product of two vectors, truncating to the shorter
// length when dimensions disagree.
func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// cosine returns the cosine similarity of two vectors, 0 when either has
// zero magnitude.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dotProd, normA, normB float64
	for i := 0; i < n; i++ {
		dotProd += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProd / (math.Sqrt(normA) * math.Sqrt(normB))
}

// meanVector returns the element-wise mean of the given vectors, nil when
// the input is empty. Dimensions follow the first vector.
func meanVector(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}

	dim := len(vectors[0])
	mean := make([]float64, dim)
	for _, vec := range vectors {
		for i := 0; i < dim && i < len(vec); i++ {
			mean[i] += vec[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}
	return mean
}
