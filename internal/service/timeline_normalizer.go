// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/metrics"
)

// TimelineNormalizer converts the raw per-session event list into a canonical
// ordered timeline for the analysis pipeline. It is stateless and safe for
// concurrent use.
type TimelineNormalizer struct{}

// NewTimelineNormalizer creates a new TimelineNormalizer.
func NewTimelineNormalizer() *TimelineNormalizer {
	return &TimelineNormalizer{}
}

// Normalize sorts events by timestamp (ties keep insertion order), drops
// exact duplicates, and drops events with unrecognized kinds. Dropping is
// deliberately the only rejection: events missing an expected source tag are
// kept, because under-counting activity has worse compliance consequences
// than over-counting. Dropped events increment a diagnostic counter rather
// than raising an error.
func (n *TimelineNormalizer) Normalize(ctx context.Context, events []models.ActivityEvent) []models.ActivityEvent {
	normalized := make([]models.ActivityEvent, 0, len(events))

	dropped := 0
	for _, event := range events {
		if !event.Kind.IsKnown() {
			metrics.ActivityEventsDroppedTotal.WithLabelValues("unknown_kind").Inc()
			dropped++
			continue
		}
		normalized = append(normalized, event)
	}
	if dropped > 0 {
		slog.DebugContext(ctx, "dropped events with unknown kinds during normalization", "dropped_count", dropped)
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Timestamp.Before(normalized[j].Timestamp)
	})

	deduped := normalized[:0]
	var prev *models.ActivityEvent
	for i := range normalized {
		event := normalized[i]
		if prev != nil && event.Timestamp.Equal(prev.Timestamp) && event.Kind == prev.Kind && event.Source == prev.Source {
			metrics.ActivityEventsDroppedTotal.WithLabelValues("duplicate").Inc()
			continue
		}
		deduped = append(deduped, event)
		prev = &deduped[len(deduped)-1]
	}

	return deduped
}
