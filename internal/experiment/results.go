// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package experiment

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// ComputeMetrics summarizes the conversion funnel per variant. Every
// defined variant appears in the result, zero-valued when it has no
// events yet.
func (r *Registry) ComputeMetrics(experimentID string) (map[string]VariantMetrics, error) {
	exp, err := r.Get(experimentID)
	if err != nil {
		return nil, err
	}

	events := r.Events(experimentID)
	byVariant := make(map[string][]Event, len(exp.Variants))
	for _, e := range events {
		byVariant[e.Variant] = append(byVariant[e.Variant], e)
	}

	results := make(map[string]VariantMetrics, len(exp.Variants))
	for variant := range exp.Variants {
		results[variant] = calculateMetrics(byVariant[variant])
	}
	return results, nil
}

// calculateMetrics folds one variant's events into funnel metrics.
func calculateMetrics(events []Event) VariantMetrics {
	if len(events) == 0 {
		return VariantMetrics{}
	}

	users := make(map[string]struct{})
	var m VariantMetrics
	for _, e := range events {
		users[e.UserID] = struct{}{}
		switch e.Type {
		case EventImpression:
			m.Impressions++
		case EventClick:
			m.Clicks++
		case EventPurchase:
			m.Purchases++
			m.Revenue += orderValue(e.Metadata)
		case EventAddToCart:
			// Tracked but not part of the summary funnel.
		}
	}
	m.Users = len(users)

	if m.Impressions > 0 {
		m.CTR = round2(float64(m.Clicks) / float64(m.Impressions) * 100)
	}
	if m.Clicks > 0 {
		m.ConversionRate = round2(float64(m.Purchases) / float64(m.Clicks) * 100)
	}
	if m.Users > 0 {
		m.RevenuePerUser = round2(m.Revenue / float64(m.Users))
	}
	if m.Purchases > 0 {
		m.AOV = round2(m.Revenue / float64(m.Purchases))
	}
	m.Revenue = round2(m.Revenue)

	return m
}

// orderValue extracts the purchase amount from event metadata, 0 when
// absent or untyped.
func orderValue(metadata map[string]any) float64 {
	switch v := metadata["order_value"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Significance runs a chi-square independence test of each variant
// against control for the given funnel metric ("ctr" or
// "conversion_rate"). The result is empty when fewer than two variants
// exist or control is missing; variants whose contingency table has an
// empty margin are skipped rather than tested.
func (r *Registry) Significance(experimentID, metric string) (map[string]SignificanceResult, error) {
	if metric != "ctr" && metric != "conversion_rate" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric)
	}

	results, err := r.ComputeMetrics(experimentID)
	if err != nil {
		return nil, err
	}

	significance := make(map[string]SignificanceResult)
	if len(results) < 2 {
		return significance, nil
	}
	control, ok := results["control"]
	if !ok {
		return significance, nil
	}

	controlSuccess, controlTotal := successTotal(control, metric)
	for variant, data := range results {
		if variant == "control" {
			continue
		}

		variantSuccess, variantTotal := successTotal(data, metric)
		chi2, valid := yatesChiSquare(
			controlSuccess, controlTotal-controlSuccess,
			variantSuccess, variantTotal-variantSuccess,
		)
		if !valid {
			continue
		}

		pValue := chiSquarePValue(chi2)
		significance[variant] = SignificanceResult{
			PValue:      round4(pValue),
			Significant: pValue < 0.05,
			ChiSquare:   round2(chi2),
			Lift:        lift(metricValue(data, metric), metricValue(control, metric)),
		}
	}

	return significance, nil
}

// successTotal maps a funnel metric onto its success/trial counts.
func successTotal(m VariantMetrics, metric string) (success, total int) {
	if metric == "conversion_rate" {
		return m.Purchases, m.Clicks
	}
	return m.Clicks, m.Impressions
}

// metricValue returns the tested rate for lift computation.
func metricValue(m VariantMetrics, metric string) float64 {
	if metric == "conversion_rate" {
		return m.ConversionRate
	}
	return m.CTR
}

// lift is the percentage change vs control, 0 when control is 0.
func lift(variant, control float64) float64 {
	if control <= 0 {
		return 0
	}
	return round2((variant/control - 1) * 100)
}

// yatesChiSquare computes the continuity-corrected chi-square statistic
// for the 2x2 table [[a, b], [c, d]]. valid is false when any marginal
// total is zero, in which case the test is undefined.
func yatesChiSquare(a, b, c, d int) (chi2 float64, valid bool) {
	af, bf, cf, df := float64(a), float64(b), float64(c), float64(d)
	n := af + bf + cf + df

	row1, row2 := af+bf, cf+df
	col1, col2 := af+cf, bf+df
	if row1 == 0 || row2 == 0 || col1 == 0 || col2 == 0 {
		return 0, false
	}

	diff := math.Abs(af*df-bf*cf) - n/2
	if diff < 0 {
		diff = 0
	}
	return n * diff * diff / (row1 * row2 * col1 * col2), true
}

// chiSquarePValue is the survival function of the chi-square distribution
// with one degree of freedom: P(X >= chi2) = erfc(sqrt(chi2 / 2)).
func chiSquarePValue(chi2 float64) float64 {
	if chi2 <= 0 {
		return 1
	}
	return math.Erfc(math.Sqrt(chi2 / 2))
}

// ExportResults assembles a serializable report of the experiment, its
// funnel metrics, and the significance of each variant on the
// conversion-rate metric.
func (r *Registry) ExportResults(experimentID string) (*Report, error) {
	exp, err := r.Get(experimentID)
	if err != nil {
		return nil, err
	}

	results, err := r.ComputeMetrics(experimentID)
	if err != nil {
		return nil, err
	}

	significance, err := r.Significance(experimentID, "conversion_rate")
	if err != nil {
		return nil, err
	}

	return &Report{
		Experiment:   exp,
		Metrics:      results,
		Significance: significance,
		ExportedAt:   time.Now().UTC(),
	}, nil
}

// WriteFile serializes the report as indented JSON.
func (rep *Report) WriteFile(path string) error {
	payload, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
