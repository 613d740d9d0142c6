// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/umair801/eCommerce-recommendation-engine/internal/experiment"
)

// stubProducer returns a fixed score map or error.
type stubProducer struct {
	name   string
	scores ScoreMap
	err    error
}

func (p *stubProducer) Name() string { return p.name }

func (p *stubProducer) Score(context.Context, string, Context) (ScoreMap, error) {
	return p.scores, p.err
}

// slowProducer blocks until its context expires.
type slowProducer struct {
	name string
}

func (p *slowProducer) Name() string { return p.name }

func (p *slowProducer) Score(ctx context.Context, _ string, _ Context) (ScoreMap, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func testConfig() Config {
	return Config{
		Weights: Weights{
			Collaborative: 0.4,
			Content:       0.3,
			Contextual:    0.2,
			Trending:      0.1,
		},
		MMRLambda:       0.7,
		ProducerTimeout: 20 * time.Millisecond,
		DefaultN:        10,
		MaxN:            100,
	}
}

func newTestEngine(t *testing.T, producers []Producer, fallback Producer) *Engine {
	t.Helper()
	eng, err := New(testConfig(), producers, nil, fallback, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func scoreOf(resp *Response, productID string) (float64, bool) {
	for _, p := range resp.Products {
		if p.ProductID == productID {
			return p.Score, true
		}
	}
	return 0, false
}

func TestNewRequiresProducers(t *testing.T) {
	t.Parallel()

	if _, err := New(testConfig(), nil, nil, nil, nil, zerolog.Nop()); !errors.Is(err, ErrNoProducers) {
		t.Errorf("err = %v, want ErrNoProducers", err)
	}
}

func TestRecommendBlendsWeightedScores(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, []Producer{
		&stubProducer{name: "collaborative", scores: ScoreMap{"prod_a": 1.0, "prod_b": 0.5}},
		&stubProducer{name: "trending", scores: ScoreMap{"prod_b": 1.0, "prod_c": 1.0}},
	}, nil)

	resp, err := eng.Recommend(context.Background(), Request{UserID: "user_1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	// prod_a = 0.4*1.0, prod_b = 0.4*0.5 + 0.1*1.0, prod_c = 0.1*1.0
	wantOrder := []string{"prod_a", "prod_b", "prod_c"}
	wantScores := map[string]float64{"prod_a": 0.4, "prod_b": 0.3, "prod_c": 0.1}

	if len(resp.Products) != len(wantOrder) {
		t.Fatalf("got %d products, want %d", len(resp.Products), len(wantOrder))
	}
	for i, want := range wantOrder {
		got := resp.Products[i]
		if got.ProductID != want {
			t.Errorf("position %d = %s, want %s", i, got.ProductID, want)
		}
		if math.Abs(got.Score-wantScores[want]) > 1e-12 {
			t.Errorf("%s score = %v, want %v", want, got.Score, wantScores[want])
		}
	}

	if resp.TotalCandidates != 3 {
		t.Errorf("TotalCandidates = %d, want 3", resp.TotalCandidates)
	}
	if len(resp.Metadata.ProducersUsed) != 2 {
		t.Errorf("ProducersUsed = %v", resp.Metadata.ProducersUsed)
	}
	if resp.Metadata.RequestID == "" {
		t.Error("request id not generated")
	}
}

func TestRecommendCarriesProducerBreakdown(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, []Producer{
		&stubProducer{name: "collaborative", scores: ScoreMap{"prod_a": 0.8}},
		&stubProducer{name: "contextual", scores: ScoreMap{"prod_a": 0.3}},
	}, nil)

	resp, err := eng.Recommend(context.Background(), Request{UserID: "user_1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	breakdown := resp.Products[0].Scores
	if breakdown["collaborative"] != 0.8 || breakdown["contextual"] != 0.3 {
		t.Errorf("breakdown = %v", breakdown)
	}
}

func TestRecommendAbsorbsProducerFailure(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, []Producer{
		&stubProducer{name: "collaborative", err: errors.New("model store down")},
		&stubProducer{name: "trending", scores: ScoreMap{"prod_a": 1.0}},
	}, nil)

	resp, err := eng.Recommend(context.Background(), Request{UserID: "user_1"})
	if err != nil {
		t.Fatalf("failure leaked: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].ProductID != "prod_a" {
		t.Errorf("products = %v", resp.Products)
	}
	if got := eng.GetMetrics().ErrorCount; got != 1 {
		t.Errorf("error count = %d, want 1", got)
	}
}

func TestRecommendTimesOutSlowProducer(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, []Producer{
		&slowProducer{name: "collaborative"},
		&stubProducer{name: "trending", scores: ScoreMap{"prod_a": 1.0}},
	}, nil)

	start := time.Now()
	resp, err := eng.Recommend(context.Background(), Request{UserID: "user_1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("request blocked on slow producer for %v", elapsed)
	}
	if len(resp.Products) != 1 {
		t.Errorf("products = %v", resp.Products)
	}
}

func TestRecommendAllFailuresUseTrendingFallback(t *testing.T) {
	t.Parallel()

	fallback := &stubProducer{name: "trending", scores: ScoreMap{"prod_x": 1.0, "prod_y": 0.5}}
	eng := newTestEngine(t, []Producer{
		&stubProducer{name: "collaborative", err: errors.New("down")},
		&stubProducer{name: "content", err: errors.New("down")},
	}, fallback)

	resp, err := eng.Recommend(context.Background(), Request{UserID: "user_1"})
	if err != nil {
		t.Fatalf("total signal failure surfaced: %v", err)
	}
	if !resp.Metadata.Fallback {
		t.Error("fallback not flagged")
	}
	if len(resp.Products) != 2 || resp.Products[0].ProductID != "prod_x" {
		t.Errorf("fallback products = %v", resp.Products)
	}
	if got := eng.GetMetrics().FallbackCount; got != 1 {
		t.Errorf("fallback count = %d, want 1", got)
	}
}

func TestRecommendWorstCaseIsEmptyList(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, []Producer{
		&stubProducer{name: "collaborative", err: errors.New("down")},
	}, &stubProducer{name: "trending", err: errors.New("also down")})

	resp, err := eng.Recommend(context.Background(), Request{UserID: "user_1"})
	if err != nil {
		t.Fatalf("worst case surfaced error: %v", err)
	}
	if len(resp.Products) != 0 {
		t.Errorf("products = %v, want empty", resp.Products)
	}
}

func TestRecommendExcludesProducts(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, []Producer{
		&stubProducer{name: "collaborative", scores: ScoreMap{"prod_a": 1.0, "prod_b": 0.9, "prod_c": 0.8}},
	}, nil)

	resp, err := eng.Recommend(context.Background(), Request{
		UserID:  "user_1",
		Exclude: []string{"prod_a", "prod_c"},
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].ProductID != "prod_b" {
		t.Errorf("products = %v", resp.Products)
	}
}

func TestRecommendAppliesNDefaultsAndCap(t *testing.T) {
	t.Parallel()

	scores := make(ScoreMap)
	for i := 0; i < 200; i++ {
		scores[fmt.Sprintf("prod_%03d", i)] = float64(i)
	}
	eng := newTestEngine(t, []Producer{
		&stubProducer{name: "collaborative", scores: scores},
	}, nil)

	resp, err := eng.Recommend(context.Background(), Request{UserID: "user_1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 10 {
		t.Errorf("default n: got %d products, want 10", len(resp.Products))
	}

	resp, err = eng.Recommend(context.Background(), Request{UserID: "user_1", N: 500})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 100 {
		t.Errorf("capped n: got %d products, want 100", len(resp.Products))
	}
}

func TestRecommendDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, []Producer{
		&stubProducer{name: "collaborative", scores: ScoreMap{"prod_b": 1.0, "prod_a": 1.0, "prod_c": 1.0}},
	}, nil)

	for i := 0; i < 10; i++ {
		resp, err := eng.Recommend(context.Background(), Request{UserID: "user_1"})
		if err != nil {
			t.Fatal(err)
		}
		got := []string{resp.Products[0].ProductID, resp.Products[1].ProductID, resp.Products[2].ProductID}
		if got[0] != "prod_a" || got[1] != "prod_b" || got[2] != "prod_c" {
			t.Fatalf("tied scores ordered %v, want id-ascending", got)
		}
	}
}

func TestRecommendResolvesVariantWeights(t *testing.T) {
	t.Parallel()

	registry := experiment.NewRegistry(zerolog.Nop())
	if err := registry.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// Find a user deterministically assigned to variant_a (cf weight 0.5).
	userID := ""
	for i := 0; i < 10000; i++ {
		candidate := fmt.Sprintf("user_%d", i)
		if registry.GetVariant(candidate, "rec_algorithm_v3") == "variant_a" {
			userID = candidate
			break
		}
	}
	if userID == "" {
		t.Fatal("no user assigned to variant_a in 10000 tries")
	}

	cfg := testConfig()
	cfg.WeightsExperiment = "rec_algorithm_v3"
	cfg.DiversityExperiment = "diversity_test"

	eng, err := New(cfg, []Producer{
		&stubProducer{name: "collaborative", scores: ScoreMap{"prod_a": 1.0}},
		&stubProducer{name: "content", scores: ScoreMap{"prod_b": 1.0}},
	}, nil, nil, registry, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := eng.Recommend(context.Background(), Request{UserID: userID})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if resp.Metadata.WeightsVariant != "variant_a" {
		t.Errorf("weights variant = %q, want variant_a", resp.Metadata.WeightsVariant)
	}
	// diversity_test is inactive: its control lambda applies silently.
	if resp.Metadata.DiversityVariant != "control" {
		t.Errorf("diversity variant = %q, want control", resp.Metadata.DiversityVariant)
	}

	if got, ok := scoreOf(resp, "prod_a"); !ok || math.Abs(got-0.5) > 1e-12 {
		t.Errorf("collaborative score under variant_a = %v, want 0.5", got)
	}
	if got, ok := scoreOf(resp, "prod_b"); !ok || math.Abs(got-0.2) > 1e-12 {
		t.Errorf("content score under variant_a = %v, want 0.2", got)
	}
}

func TestParseContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]any
		want Context
	}{
		{
			name: "full context",
			raw: map[string]any{
				"device":    "mobile",
				"location":  "us-west",
				"season":    "winter",
				"hour":      20,
				"page_type": "home",
				"referrer":  "email",
			},
			want: Context{Device: "mobile", Location: "us-west", Season: "winter", Hour: 20, PageType: "home", Referrer: "email"},
		},
		{
			name: "json numbers decode as float64",
			raw:  map[string]any{"hour": 7.0},
			want: Context{Hour: 7},
		},
		{
			name: "missing hour defaults to midday",
			raw:  map[string]any{"device": "desktop"},
			want: Context{Device: "desktop", Hour: 12},
		},
		{
			name: "out of range hour defaults",
			raw:  map[string]any{"hour": 99},
			want: Context{Hour: 12},
		},
		{
			name: "nil map",
			raw:  nil,
			want: Context{Hour: 12},
		},
		{
			name: "wrongly typed values ignored",
			raw:  map[string]any{"device": 4, "hour": "eight"},
			want: Context{Hour: 12},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseContext(tc.raw); got != tc.want {
				t.Errorf("ParseContext = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestWeightsForProducer(t *testing.T) {
	t.Parallel()

	w := Weights{Collaborative: 0.4, Content: 0.3, Contextual: 0.2, Trending: 0.1}
	tests := map[string]float64{
		"collaborative": 0.4,
		"content":       0.3,
		"contextual":    0.2,
		"trending":      0.1,
		"unknown":       0,
	}
	for name, want := range tests {
		if got := w.ForProducer(name); got != want {
			t.Errorf("ForProducer(%q) = %v, want %v", name, got, want)
		}
	}
}
