// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package experiment

import (
	"crypto/md5" //nolint:gosec // non-cryptographic use: stable assignment hashing
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/umair801/eCommerce-recommendation-engine/internal/metrics"
)

// assignmentBuckets is the hash-space resolution for traffic splitting:
// users land in one of 10000 buckets, giving 0.01% split granularity.
const assignmentBuckets = 10000

// splitTolerance absorbs float accumulation noise when validating that a
// traffic split sums to 1.
const splitTolerance = 1e-9

// Registry holds experiment definitions and the conversion event log.
// It is safe for concurrent use.
type Registry struct {
	logger zerolog.Logger

	mu          sync.RWMutex
	experiments map[string]*Experiment

	eventsMu sync.Mutex
	events   []Event
}

// NewRegistry creates an empty registry.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger:      logger.With().Str("component", "experiments").Logger(),
		experiments: make(map[string]*Experiment),
	}
}

// Create registers a new experiment. Variant configs have defaults
// applied; the traffic split must cover defined variants and sum to 1.
// New experiments start inactive.
//
//nolint:gocritic // hugeParam: exp passed by value for immutability
func (r *Registry) Create(exp Experiment) (*Experiment, error) {
	if exp.ID == "" {
		return nil, fmt.Errorf("%w: empty experiment id", ErrUnknownExperiment)
	}
	if err := validateSplit(exp.Variants, exp.TrafficSplit); err != nil {
		return nil, err
	}

	variants := make(map[string]VariantConfig, len(exp.Variants))
	for name, vc := range exp.Variants {
		variants[name] = vc.withDefaults()
	}
	exp.Variants = variants
	exp.Active = false
	exp.EndedAt = nil
	if exp.StartedAt.IsZero() {
		exp.StartedAt = time.Now().UTC()
	}
	if len(exp.Metrics) == 0 {
		exp.Metrics = []string{"ctr", "conversion_rate", "revenue"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.experiments[exp.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateExperiment, exp.ID)
	}
	r.experiments[exp.ID] = &exp

	r.logger.Info().Str("experiment", exp.ID).Msg("created experiment")
	return &exp, nil
}

// validateSplit checks the traffic split covers known variants and sums
// to 1 within float tolerance.
func validateSplit(variants map[string]VariantConfig, split map[string]float64) error {
	if len(variants) == 0 || len(split) == 0 {
		return fmt.Errorf("%w: no variants defined", ErrInvalidTrafficSplit)
	}

	var sum float64
	for name, fraction := range split {
		if _, ok := variants[name]; !ok {
			return fmt.Errorf("%w: split references unknown variant %q", ErrInvalidTrafficSplit, name)
		}
		if fraction < 0 {
			return fmt.Errorf("%w: negative fraction for %q", ErrInvalidTrafficSplit, name)
		}
		sum += fraction
	}
	if math.Abs(sum-1.0) > splitTolerance {
		return fmt.Errorf("%w: got %v", ErrInvalidTrafficSplit, sum)
	}
	return nil
}

// Get returns a copy of an experiment definition.
func (r *Registry) Get(experimentID string) (Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, ok := r.experiments[experimentID]
	if !ok {
		return Experiment{}, fmt.Errorf("%w: %s", ErrUnknownExperiment, experimentID)
	}
	return *exp, nil
}

// List returns all experiment IDs in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.experiments))
	for id := range r.experiments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Activate opens an experiment for assignment.
func (r *Registry) Activate(experimentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.experiments[experimentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExperiment, experimentID)
	}
	exp.Active = true
	exp.EndedAt = nil

	r.logger.Info().Str("experiment", experimentID).Msg("activated experiment")
	return nil
}

// Deactivate closes an experiment; subsequent assignments pin to control.
func (r *Registry) Deactivate(experimentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.experiments[experimentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExperiment, experimentID)
	}
	exp.Active = false
	now := time.Now().UTC()
	exp.EndedAt = &now

	r.logger.Info().Str("experiment", experimentID).Msg("deactivated experiment")
	return nil
}

// GetVariant assigns a user to a variant by consistent hashing, so the
// same user always lands in the same variant for a given experiment.
// Unknown and inactive experiments assign "control" (fail-open).
func (r *Registry) GetVariant(userID, experimentID string) string {
	r.mu.RLock()
	exp, ok := r.experiments[experimentID]
	var split map[string]float64
	var active bool
	if ok {
		split = exp.TrafficSplit
		active = exp.Active
	}
	r.mu.RUnlock()

	variant := "control"
	switch {
	case !ok:
		r.logger.Warn().Str("experiment", experimentID).Msg("experiment not found, assigning control")
	case !active:
		// Pinned to control while the experiment is not running.
	default:
		variant = assignVariant(userID, experimentID, split)
	}

	metrics.ExperimentAssignments.WithLabelValues(experimentID, variant).Inc()
	return variant
}

// assignVariant maps the user into one of assignmentBuckets buckets and
// walks the split fractions in sorted variant order until the cumulative
// share covers the bucket.
func assignVariant(userID, experimentID string, split map[string]float64) string {
	bucket := float64(hashBucket(userID+":"+experimentID)) / assignmentBuckets

	names := make([]string, 0, len(split))
	for name := range split {
		names = append(names, name)
	}
	sort.Strings(names)

	cumulative := 0.0
	for _, name := range names {
		cumulative += split[name]
		if bucket < cumulative {
			return name
		}
	}
	return "control"
}

// hashBucket reduces the md5 digest of the input to a bucket index,
// equivalent to interpreting the digest as a big-endian integer mod the
// bucket count.
func hashBucket(input string) int {
	digest := md5.Sum([]byte(input)) //nolint:gosec // stable hashing, not security

	acc := 0
	for _, b := range digest {
		acc = (acc*256 + int(b)) % assignmentBuckets
	}
	return acc
}

// VariantConfig returns the parameter set for a variant of an experiment.
func (r *Registry) VariantConfig(experimentID, variant string) (VariantConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, ok := r.experiments[experimentID]
	if !ok {
		return VariantConfig{}, false
	}
	vc, ok := exp.Variants[variant]
	return vc, ok
}

// Seed registers the reference experiments shipped with the engine: the
// active blend-weight experiment and the not-yet-started diversity
// experiment. Safe to call once at startup on an empty registry.
func (r *Registry) Seed() error {
	weightExp, err := r.Create(Experiment{
		ID:          "rec_algorithm_v3",
		Name:        "Recommendation Algorithm Weights",
		Description: "Testing different weight combinations for hybrid recommender",
		Variants: map[string]VariantConfig{
			"control":   {CFWeight: 0.4, CBWeight: 0.3, ContextWeight: 0.2, TrendingWeight: 0.1},
			"variant_a": {CFWeight: 0.5, CBWeight: 0.2, ContextWeight: 0.2, TrendingWeight: 0.1},
			"variant_b": {CFWeight: 0.3, CBWeight: 0.4, ContextWeight: 0.2, TrendingWeight: 0.1},
		},
		TrafficSplit: map[string]float64{
			"control":   0.34,
			"variant_a": 0.33,
			"variant_b": 0.33,
		},
		StartedAt: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Metrics:   []string{"ctr", "conversion_rate", "revenue_per_user", "aov"},
	})
	if err != nil {
		return fmt.Errorf("seed weights experiment: %w", err)
	}
	if err := r.Activate(weightExp.ID); err != nil {
		return fmt.Errorf("seed weights experiment: %w", err)
	}

	_, err = r.Create(Experiment{
		ID:          "diversity_test",
		Name:        "Recommendation Diversity",
		Description: "Testing MMR lambda parameter for diversity",
		Variants: map[string]VariantConfig{
			"control":       {MMRLambda: 0.7},
			"more_diverse":  {MMRLambda: 0.5},
			"more_relevant": {MMRLambda: 0.9},
		},
		TrafficSplit: map[string]float64{
			"control":       0.34,
			"more_diverse":  0.33,
			"more_relevant": 0.33,
		},
	})
	if err != nil {
		return fmt.Errorf("seed diversity experiment: %w", err)
	}

	return nil
}
