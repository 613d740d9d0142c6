// eCommerce Recommendation Engine - Hybrid Ranking and A/B Experimentation
// Copyright 2026 Umair A. (umair801)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/umair801/eCommerce-recommendation-engine

package experiment

import (
	"time"

	"github.com/google/uuid"

	"github.com/umair801/eCommerce-recommendation-engine/internal/metrics"
)

// TrackEvent appends one conversion event to the log. Events are
// immutable once tracked; metadata carries extras such as order_value on
// purchases.
func (r *Registry) TrackEvent(userID, experimentID, variant string, eventType EventType, metadata map[string]any) {
	event := Event{
		ID:           uuid.NewString(),
		UserID:       userID,
		ExperimentID: experimentID,
		Variant:      variant,
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		Metadata:     metadata,
	}

	r.eventsMu.Lock()
	r.events = append(r.events, event)
	r.eventsMu.Unlock()

	metrics.ExperimentEvents.WithLabelValues(experimentID, string(eventType)).Inc()

	r.logger.Debug().
		Str("experiment", experimentID).
		Str("variant", variant).
		Str("event_type", string(eventType)).
		Msg("tracked event")
}

// Events returns a snapshot copy of the events for one experiment.
// Concurrent TrackEvent calls after the snapshot are not reflected.
func (r *Registry) Events(experimentID string) []Event {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	snapshot := make([]Event, 0)
	for _, e := range r.events {
		if e.ExperimentID == experimentID {
			snapshot = append(snapshot, e)
		}
	}
	return snapshot
}

// EventCount reports the total number of tracked events across all
// experiments.
func (r *Registry) EventCount() int {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()
	return len(r.events)
}
