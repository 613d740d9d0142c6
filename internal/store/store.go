// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

// Package store holds the read-only product/user data the scoring pipeline
// borrows: pre-computed latent vectors from the external training pipeline,
// product catalog attributes, and per-user interaction history.
//
// A store is populated once at startup (or built up in tests) and is
// read-only afterwards; concurrent reads need no locking.
package store

import (
	"sort"
)

// Product is a catalog entry with the attributes the contextual rules and
// the similarity computations need. The engine never mutates products.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Category string   `json:"category,omitempty"`
	Seasons  []string `json:"seasons,omitempty"`
	Regions  []string `json:"regions,omitempty"`
	Dayparts []string `json:"dayparts,omitempty"`
	Mobile   bool     `json:"mobile_friendly,omitempty"`
}

// FeatureStore provides vector and catalog lookups.
type FeatureStore struct {
	productVectors map[string][]float64
	userVectors    map[string][]float64
	products       map[string]Product
}

// NewFeatureStore creates an empty feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		productVectors: make(map[string][]float64),
		userVectors:    make(map[string][]float64),
		products:       make(map[string]Product),
	}
}

// SetProductVector registers a product latent/feature vector.
// Must be called before the store is shared across goroutines.
func (s *FeatureStore) SetProductVector(id string, vec []float64) {
	s.productVectors[id] = vec
}

// SetUserVector registers a user latent vector.
func (s *FeatureStore) SetUserVector(id string, vec []float64) {
	s.userVectors[id] = vec
}

// AddProduct registers a catalog entry.
func (s *FeatureStore) AddProduct(p Product) {
	s.products[p.ID] = p
}

// ProductVector returns the vector for a product, if known.
func (s *FeatureStore) ProductVector(id string) ([]float64, bool) {
	v, ok := s.productVectors[id]
	return v, ok
}

// UserVector returns the latent vector for a user, if known.
func (s *FeatureStore) UserVector(id string) ([]float64, bool) {
	v, ok := s.userVectors[id]
	return v, ok
}

// ProductVectors returns the full product-vector map. Callers must treat
// the result as read-only.
func (s *FeatureStore) ProductVectors() map[string][]float64 {
	return s.productVectors
}

// Product returns the catalog entry for an id, if known.
func (s *FeatureStore) Product(id string) (Product, bool) {
	p, ok := s.products[id]
	return p, ok
}

// SeasonalProducts returns ids of products tagged with the given season.
func (s *FeatureStore) SeasonalProducts(season string) []string {
	return s.selectProducts(func(p Product) bool {
		return contains(p.Seasons, season)
	})
}

// MobileFriendlyProducts returns ids of products suited to mobile shopping.
func (s *FeatureStore) MobileFriendlyProducts() []string {
	return s.selectProducts(func(p Product) bool {
		return p.Mobile
	})
}

// RegionalProducts returns ids of products available in the given region.
func (s *FeatureStore) RegionalProducts(region string) []string {
	return s.selectProducts(func(p Product) bool {
		return contains(p.Regions, region)
	})
}

// DaypartProducts returns ids of products relevant to the daypart covering
// the given hour (0-23).
func (s *FeatureStore) DaypartProducts(hour int) []string {
	daypart := DaypartForHour(hour)
	return s.selectProducts(func(p Product) bool {
		return contains(p.Dayparts, daypart)
	})
}

// selectProducts returns sorted ids of products matching the predicate.
// Sorted output keeps contextual scoring deterministic.
func (s *FeatureStore) selectProducts(match func(Product) bool) []string {
	var ids []string
	for id, p := range s.products {
		if match(p) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// DaypartForHour maps an hour of day to its daypart name.
func DaypartForHour(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// HistoryStore provides per-user interaction history (most recent first).
// Populated once at startup; read-only afterwards.
type HistoryStore struct {
	history map[string][]string
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{history: make(map[string][]string)}
}

// SetHistory registers the interacted product ids for a user.
func (s *HistoryStore) SetHistory(userID string, productIDs []string) {
	s.history[userID] = productIDs
}

// History returns the product ids a user interacted with. A user without
// history yields nil.
func (s *HistoryStore) History(userID string) []string {
	return s.history[userID]
}
