// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestFeatureStoreLookups(t *testing.T) {
	t.Parallel()

	fs := NewFeatureStore()
	fs.SetProductVector("p1", []float64{1, 0})
	fs.SetUserVector("u1", []float64{0.5, 0.5})
	fs.AddProduct(Product{ID: "p1", Seasons: []string{"winter"}, Mobile: true})
	fs.AddProduct(Product{ID: "p2", Regions: []string{"eu"}, Dayparts: []string{"morning"}})

	if _, ok := fs.ProductVector("p1"); !ok {
		t.Error("ProductVector(p1) not found")
	}
	if _, ok := fs.ProductVector("missing"); ok {
		t.Error("ProductVector(missing) unexpectedly found")
	}
	if _, ok := fs.UserVector("u1"); !ok {
		t.Error("UserVector(u1) not found")
	}

	if got := fs.SeasonalProducts("winter"); !reflect.DeepEqual(got, []string{"p1"}) {
		t.Errorf("SeasonalProducts(winter) = %v, want [p1]", got)
	}
	if got := fs.MobileFriendlyProducts(); !reflect.DeepEqual(got, []string{"p1"}) {
		t.Errorf("MobileFriendlyProducts() = %v, want [p1]", got)
	}
	if got := fs.RegionalProducts("eu"); !reflect.DeepEqual(got, []string{"p2"}) {
		t.Errorf("RegionalProducts(eu) = %v, want [p2]", got)
	}
	if got := fs.DaypartProducts(8); !reflect.DeepEqual(got, []string{"p2"}) {
		t.Errorf("DaypartProducts(8) = %v, want [p2]", got)
	}
	if got := fs.SeasonalProducts("summer"); got != nil {
		t.Errorf("SeasonalProducts(summer) = %v, want nil", got)
	}
}

func TestDaypartForHour(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour int
		want string
	}{
		{6, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{16, "afternoon"},
		{17, "evening"},
		{21, "evening"},
		{22, "night"},
		{3, "night"},
		{0, "night"},
	}

	for _, tt := range tests {
		if got := DaypartForHour(tt.hour); got != tt.want {
			t.Errorf("DaypartForHour(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestHistoryStore(t *testing.T) {
	t.Parallel()

	hs := NewHistoryStore()
	hs.SetHistory("u1", []string{"p3", "p1"})

	if got := hs.History("u1"); !reflect.DeepEqual(got, []string{"p3", "p1"}) {
		t.Errorf("History(u1) = %v", got)
	}
	if got := hs.History("unknown"); got != nil {
		t.Errorf("History(unknown) = %v, want nil", got)
	}
}

func TestLoadFromFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	paths := Paths{
		ProductVectors: write("pv.json", `{"p1":[0.1,0.2],"p2":[0.3,0.4]}`),
		UserVectors:    write("uv.json", `{"u1":[1,0]}`),
		Catalog:        write("cat.json", `[{"id":"p1","seasons":["winter"],"mobile_friendly":true}]`),
		History:        write("hist.json", `{"u1":["p2"]}`),
	}

	fs, hs := Load(paths, zerolog.Nop())

	if vec, ok := fs.ProductVector("p2"); !ok || len(vec) != 2 {
		t.Errorf("ProductVector(p2) = %v, %v", vec, ok)
	}
	if _, ok := fs.UserVector("u1"); !ok {
		t.Error("UserVector(u1) not loaded")
	}
	if p, ok := fs.Product("p1"); !ok || !p.Mobile {
		t.Errorf("Product(p1) = %+v, %v", p, ok)
	}
	if got := hs.History("u1"); !reflect.DeepEqual(got, []string{"p2"}) {
		t.Errorf("History(u1) = %v", got)
	}
}

func TestLoadMissingFilesIsNotFatal(t *testing.T) {
	t.Parallel()

	fs, hs := Load(Paths{
		ProductVectors: "/nonexistent/pv.json",
		UserVectors:    "",
	}, zerolog.Nop())

	if fs == nil || hs == nil {
		t.Fatal("Load returned nil stores")
	}
	if _, ok := fs.ProductVector("p1"); ok {
		t.Error("empty store should have no vectors")
	}
}
