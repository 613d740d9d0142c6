// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package experiment implements the A/B testing subsystem: an experiment
// registry with deterministic hash-based variant assignment, an
// append-only conversion event log, per-variant funnel metrics, and
// chi-square significance analysis against the control variant.
package experiment

import (
	"errors"
	"time"
)

// Sentinel errors for registry operations.
var (
	// ErrInvalidTrafficSplit indicates the split fractions do not sum to 1
	// or reference variants that do not exist.
	ErrInvalidTrafficSplit = errors.New("traffic split must sum to 1.0 across defined variants")

	// ErrDuplicateExperiment indicates the experiment ID is already taken.
	ErrDuplicateExperiment = errors.New("experiment already exists")

	// ErrUnknownExperiment indicates the experiment ID is not registered.
	ErrUnknownExperiment = errors.New("experiment not found")

	// ErrUnsupportedMetric indicates a significance metric other than
	// ctr or conversion_rate was requested.
	ErrUnsupportedMetric = errors.New("unsupported significance metric")
)

// Default variant parameters, matching the production control blend.
const (
	DefaultCFWeight       = 0.4
	DefaultCBWeight       = 0.3
	DefaultContextWeight  = 0.2
	DefaultTrendingWeight = 0.1
	DefaultMMRLambda      = 0.7
)

// VariantConfig is the typed per-variant parameter set. Fields left at
// zero are treated as unsupplied and filled with the defaults above when
// the experiment is registered.
type VariantConfig struct {
	CFWeight       float64 `json:"cf_weight"`
	CBWeight       float64 `json:"cb_weight"`
	ContextWeight  float64 `json:"context_weight"`
	TrendingWeight float64 `json:"trending_weight"`
	MMRLambda      float64 `json:"mmr_lambda"`
}

// withDefaults fills unsupplied fields.
func (v VariantConfig) withDefaults() VariantConfig {
	if v.CFWeight == 0 {
		v.CFWeight = DefaultCFWeight
	}
	if v.CBWeight == 0 {
		v.CBWeight = DefaultCBWeight
	}
	if v.ContextWeight == 0 {
		v.ContextWeight = DefaultContextWeight
	}
	if v.TrendingWeight == 0 {
		v.TrendingWeight = DefaultTrendingWeight
	}
	if v.MMRLambda == 0 {
		v.MMRLambda = DefaultMMRLambda
	}
	return v
}

// Experiment is one registered A/B test.
type Experiment struct {
	// ID uniquely identifies the experiment.
	ID string `json:"experiment_id"`

	// Name and Description are operator-facing.
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Variants maps variant names to their parameter sets.
	Variants map[string]VariantConfig `json:"variants"`

	// TrafficSplit maps variant names to assignment fractions; the
	// fractions sum to 1.
	TrafficSplit map[string]float64 `json:"traffic_split"`

	// Active gates assignment: inactive experiments pin every user to
	// control.
	Active bool `json:"active"`

	// StartedAt is when the experiment was registered or first scheduled.
	StartedAt time.Time `json:"started_at"`

	// EndedAt is set on deactivation.
	EndedAt *time.Time `json:"ended_at,omitempty"`

	// Metrics lists the funnel metrics tracked for this experiment.
	Metrics []string `json:"metrics,omitempty"`
}

// EventType classifies conversion funnel events.
type EventType string

// Funnel event types, in order.
const (
	EventImpression EventType = "impression"
	EventClick      EventType = "click"
	EventAddToCart  EventType = "add_to_cart"
	EventPurchase   EventType = "purchase"
)

// Event is one immutable tracked conversion event.
type Event struct {
	// ID is a generated unique event identifier.
	ID string `json:"event_id"`

	// UserID, ExperimentID, and Variant tie the event to an assignment.
	UserID       string `json:"user_id"`
	ExperimentID string `json:"experiment_id"`
	Variant      string `json:"variant"`

	// Type is the funnel step.
	Type EventType `json:"event_type"`

	// Timestamp is when the event was tracked.
	Timestamp time.Time `json:"timestamp"`

	// Metadata carries event extras, e.g. order_value on purchases.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VariantMetrics is the per-variant funnel summary. Rates are percentages
// rounded to two decimals; every rate is 0 when its denominator is 0.
type VariantMetrics struct {
	Users          int     `json:"users"`
	Impressions    int     `json:"impressions"`
	Clicks         int     `json:"clicks"`
	Purchases      int     `json:"purchases"`
	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversion_rate"`
	Revenue        float64 `json:"revenue"`
	RevenuePerUser float64 `json:"revenue_per_user"`
	AOV            float64 `json:"aov"`
}

// SignificanceResult compares one variant against control.
type SignificanceResult struct {
	// PValue is the chi-square test p-value, rounded to four decimals.
	PValue float64 `json:"p_value"`

	// Significant is true when PValue < 0.05.
	Significant bool `json:"significant"`

	// ChiSquare is the Yates-corrected test statistic, rounded to two
	// decimals.
	ChiSquare float64 `json:"chi_square"`

	// Lift is the percentage change of the tested metric vs control,
	// 0 when the control value is 0.
	Lift float64 `json:"lift"`
}

// Report is a JSON-serializable experiment summary.
type Report struct {
	Experiment   Experiment                    `json:"experiment"`
	Metrics      map[string]VariantMetrics     `json:"metrics"`
	Significance map[string]SignificanceResult `json:"significance"`
	ExportedAt   time.Time                     `json:"export_date"`
}
