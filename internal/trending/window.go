// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package trending

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// atomicFloat64 is a lock-free float64 accumulator. Concurrent Adds never
// lose updates: the value is advanced with a CAS loop over its bit pattern.
type atomicFloat64 struct {
	bits atomic.Uint64
}

// Add atomically adds delta to the value.
func (f *atomicFloat64) Add(delta float64) {
	for {
		old := f.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if f.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Load returns the current value.
func (f *atomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Window is the in-process rolling popularity window used when the Redis
// backend is unavailable. The window is divided into buckets; increments
// land in the current bucket and whole buckets age out as time advances.
// This is the documented decay policy: entries leave the window when the
// bucket that recorded them rotates out, so the total span of retained
// increments is between (window - bucket) and window.
//
// Increment is O(1). TopK is O(items) plus an O(m log m) sort and is meant
// for the low-hundreds cardinalities of a trending set.
type Window struct {
	mu         sync.RWMutex
	buckets    []*xsync.MapOf[string, *atomicFloat64]
	current    int
	bucketDur  time.Duration
	lastRotate time.Time
	clock      func() time.Time
}

// NewWindow creates a rolling window of the given total size split into
// numBuckets buckets.
func NewWindow(size time.Duration, numBuckets int) *Window {
	if numBuckets <= 0 {
		numBuckets = 24
	}
	if size <= 0 {
		size = 24 * time.Hour
	}

	buckets := make([]*xsync.MapOf[string, *atomicFloat64], numBuckets)
	for i := range buckets {
		buckets[i] = xsync.NewMapOf[string, *atomicFloat64]()
	}

	return &Window{
		buckets:    buckets,
		bucketDur:  size / time.Duration(numBuckets),
		lastRotate: time.Now(),
		clock:      time.Now,
	}
}

// Increment adds amount to the item's score in the current bucket.
func (w *Window) Increment(productID string, amount float64) {
	w.maybeRotate()

	w.mu.RLock()
	bucket := w.buckets[w.current]
	w.mu.RUnlock()

	counter, _ := bucket.LoadOrStore(productID, &atomicFloat64{})
	counter.Add(amount)
}

// TopK returns up to k items ordered by total score descending, ties broken
// by product id ascending for determinism.
func (w *Window) TopK(k int) []Entry {
	if k <= 0 {
		return nil
	}

	w.maybeRotate()

	w.mu.RLock()
	buckets := make([]*xsync.MapOf[string, *atomicFloat64], len(w.buckets))
	copy(buckets, w.buckets)
	w.mu.RUnlock()

	totals := make(map[string]float64)
	for _, bucket := range buckets {
		bucket.Range(func(id string, counter *atomicFloat64) bool {
			totals[id] += counter.Load()
			return true
		})
	}

	entries := make([]Entry, 0, len(totals))
	for id, score := range totals {
		entries = append(entries, Entry{ProductID: id, Score: score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ProductID < entries[j].ProductID
	})

	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// maybeRotate ages out buckets that have fallen outside the window.
func (w *Window) maybeRotate() {
	w.mu.RLock()
	elapsed := w.clock().Sub(w.lastRotate)
	w.mu.RUnlock()

	if elapsed < w.bucketDur {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Re-check under the write lock; another goroutine may have rotated.
	now := w.clock()
	steps := int(now.Sub(w.lastRotate) / w.bucketDur)
	if steps <= 0 {
		return
	}

	if steps >= len(w.buckets) {
		// Idle longer than the whole window: everything has aged out.
		for i := range w.buckets {
			w.buckets[i] = xsync.NewMapOf[string, *atomicFloat64]()
		}
		w.lastRotate = now
		return
	}

	for i := 0; i < steps; i++ {
		w.current = (w.current + 1) % len(w.buckets)
		w.buckets[w.current] = xsync.NewMapOf[string, *atomicFloat64]()
	}
	w.lastRotate = w.lastRotate.Add(time.Duration(steps) * w.bucketDur)
}
