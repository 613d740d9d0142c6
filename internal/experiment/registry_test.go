// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package experiment

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func seededRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(zerolog.Nop())
	if err := r.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return r
}

func TestSeedRegistersReferenceExperiments(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)

	weights, err := r.Get("rec_algorithm_v3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !weights.Active {
		t.Error("weights experiment should be active")
	}
	if got := weights.Variants["variant_a"].CFWeight; got != 0.5 {
		t.Errorf("variant_a cf weight = %v, want 0.5", got)
	}
	if got := weights.Variants["variant_b"].CBWeight; got != 0.4 {
		t.Errorf("variant_b cb weight = %v, want 0.4", got)
	}

	diversity, err := r.Get("diversity_test")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diversity.Active {
		t.Error("diversity experiment should start inactive")
	}
	if got := diversity.Variants["more_diverse"].MMRLambda; got != 0.5 {
		t.Errorf("more_diverse lambda = %v, want 0.5", got)
	}
	// Weight fields were unsupplied and should carry the defaults.
	if got := diversity.Variants["more_diverse"].CFWeight; got != DefaultCFWeight {
		t.Errorf("more_diverse cf weight = %v, want default %v", got, DefaultCFWeight)
	}
}

func TestCreateRejectsInvalidSplit(t *testing.T) {
	t.Parallel()

	variants := map[string]VariantConfig{
		"control": {},
		"test":    {CFWeight: 0.6},
	}

	tests := []struct {
		name  string
		split map[string]float64
	}{
		{"sum below one", map[string]float64{"control": 0.5, "test": 0.49}},
		{"sum above one", map[string]float64{"control": 0.6, "test": 0.6}},
		{"unknown variant", map[string]float64{"control": 0.5, "ghost": 0.5}},
		{"negative fraction", map[string]float64{"control": 1.5, "test": -0.5}},
		{"empty split", map[string]float64{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewRegistry(zerolog.Nop())
			_, err := r.Create(Experiment{
				ID:           "exp",
				Name:         "Exp",
				Variants:     variants,
				TrafficSplit: tc.split,
			})
			if !errors.Is(err, ErrInvalidTrafficSplit) {
				t.Errorf("err = %v, want ErrInvalidTrafficSplit", err)
			}
		})
	}
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)
	_, err := r.Create(Experiment{
		ID:           "rec_algorithm_v3",
		Name:         "Again",
		Variants:     map[string]VariantConfig{"control": {}},
		TrafficSplit: map[string]float64{"control": 1.0},
	})
	if !errors.Is(err, ErrDuplicateExperiment) {
		t.Errorf("err = %v, want ErrDuplicateExperiment", err)
	}
}

func TestCreateStartsInactiveWithDefaults(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zerolog.Nop())
	exp, err := r.Create(Experiment{
		ID:           "checkout_banner",
		Name:         "Checkout Banner",
		Variants:     map[string]VariantConfig{"control": {}, "banner": {}},
		TrafficSplit: map[string]float64{"control": 0.5, "banner": 0.5},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if exp.Active {
		t.Error("new experiments must start inactive")
	}
	vc := exp.Variants["banner"]
	want := VariantConfig{
		CFWeight:       DefaultCFWeight,
		CBWeight:       DefaultCBWeight,
		ContextWeight:  DefaultContextWeight,
		TrendingWeight: DefaultTrendingWeight,
		MMRLambda:      DefaultMMRLambda,
	}
	if vc != want {
		t.Errorf("defaults not applied: %+v", vc)
	}
	if len(exp.Metrics) == 0 {
		t.Error("default metric list missing")
	}
}

func TestGetVariantIsIdempotent(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)
	first := r.GetVariant("user_42", "rec_algorithm_v3")
	for i := 0; i < 100; i++ {
		if got := r.GetVariant("user_42", "rec_algorithm_v3"); got != first {
			t.Fatalf("assignment changed from %q to %q on call %d", first, got, i)
		}
	}
}

func TestGetVariantFailsOpenToControl(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)

	if got := r.GetVariant("user_1", "no_such_experiment"); got != "control" {
		t.Errorf("unknown experiment assigned %q, want control", got)
	}
	// diversity_test is seeded inactive.
	if got := r.GetVariant("user_1", "diversity_test"); got != "control" {
		t.Errorf("inactive experiment assigned %q, want control", got)
	}
}

func TestAssignmentDistributionMatchesSplit(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)

	const users = 10000
	counts := make(map[string]int)
	for i := 0; i < users; i++ {
		counts[r.GetVariant(fmt.Sprintf("user_%d", i), "rec_algorithm_v3")]++
	}

	split := map[string]float64{"control": 0.34, "variant_a": 0.33, "variant_b": 0.33}
	for variant, want := range split {
		got := float64(counts[variant]) / users
		if math.Abs(got-want) > want*0.15 {
			t.Errorf("variant %s share = %.3f, want %.2f +-15%%", variant, got, want)
		}
	}
}

func TestAssignmentsIndependentAcrossExperiments(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)
	if err := r.Activate("diversity_test"); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	// Users sharing a variant in one experiment must not all share a
	// variant in the other.
	seen := make(map[string]map[string]struct{})
	for i := 0; i < 1000; i++ {
		user := fmt.Sprintf("user_%d", i)
		weights := r.GetVariant(user, "rec_algorithm_v3")
		diversity := r.GetVariant(user, "diversity_test")
		if seen[weights] == nil {
			seen[weights] = make(map[string]struct{})
		}
		seen[weights][diversity] = struct{}{}
	}

	for weightsVariant, diversityVariants := range seen {
		if len(diversityVariants) < 2 {
			t.Errorf("users in %s all landed in one diversity variant", weightsVariant)
		}
	}
}

func TestDeactivateStampsEndedAt(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)
	if err := r.Deactivate("rec_algorithm_v3"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	exp, err := r.Get("rec_algorithm_v3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if exp.Active {
		t.Error("experiment still active after deactivation")
	}
	if exp.EndedAt == nil {
		t.Error("EndedAt not stamped")
	}

	if got := r.GetVariant("user_1", "rec_algorithm_v3"); got != "control" {
		t.Errorf("deactivated experiment assigned %q, want control", got)
	}

	if err := r.Activate("rec_algorithm_v3"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	exp, _ = r.Get("rec_algorithm_v3")
	if exp.EndedAt != nil {
		t.Error("EndedAt should clear on reactivation")
	}
}

func TestActivateUnknownExperiment(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zerolog.Nop())
	if err := r.Activate("ghost"); !errors.Is(err, ErrUnknownExperiment) {
		t.Errorf("err = %v, want ErrUnknownExperiment", err)
	}
	if err := r.Deactivate("ghost"); !errors.Is(err, ErrUnknownExperiment) {
		t.Errorf("err = %v, want ErrUnknownExperiment", err)
	}
}

func TestVariantConfigLookup(t *testing.T) {
	t.Parallel()

	r := seededRegistry(t)

	vc, ok := r.VariantConfig("rec_algorithm_v3", "variant_a")
	if !ok {
		t.Fatal("variant_a not found")
	}
	if vc.CFWeight != 0.5 || vc.CBWeight != 0.2 {
		t.Errorf("unexpected config: %+v", vc)
	}

	if _, ok := r.VariantConfig("rec_algorithm_v3", "ghost"); ok {
		t.Error("unknown variant reported found")
	}
	if _, ok := r.VariantConfig("ghost", "control"); ok {
		t.Error("unknown experiment reported found")
	}
}

func TestHashBucketRangeAndDeterminism(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		input := fmt.Sprintf("user_%d:rec_algorithm_v3", i)
		b := hashBucket(input)
		if b < 0 || b >= assignmentBuckets {
			t.Fatalf("bucket %d out of range for %q", b, input)
		}
		if again := hashBucket(input); again != b {
			t.Fatalf("bucket changed between calls: %d vs %d", b, again)
		}
	}
}
