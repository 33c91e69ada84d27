// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"time"

	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// OccurrenceService defines the interface for calculating meeting occurrences
// based on recurrence patterns.
type OccurrenceService interface {
	// CalculateOccurrences calculates occurrences for a meeting starting from the meeting's start time.
	CalculateOccurrences(meeting *models.Meeting, limit int) []models.Occurrence

	// CalculateOccurrencesFromDate calculates occurrences for a meeting starting from a specific date.
	CalculateOccurrencesFromDate(meeting *models.Meeting, fromDate time.Time, limit int) []models.Occurrence

	// OccurrenceFor resolves which scheduled occurrence a join timestamp
	// belongs to: the latest occurrence starting no later than the join time
	// within the lookback window. For one-off meetings this is the meeting's
	// own start time. Returns nil when no occurrence matches.
	OccurrenceFor(meeting *models.Meeting, joinTime time.Time) *models.Occurrence
}
