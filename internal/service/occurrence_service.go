// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/pkg/constants"
	"github.com/proofmeet/court-card-service/pkg/utils"
)

// OccurrenceService implements the domain.OccurrenceService interface by
// evaluating the meeting's RFC 5545 recurrence rule in the meeting's timezone.
type OccurrenceService struct{}

// NewOccurrenceService creates a new OccurrenceService
func NewOccurrenceService() *OccurrenceService {
	return &OccurrenceService{}
}

var _ domain.OccurrenceService = (*OccurrenceService)(nil)

// CalculateOccurrences calculates occurrences for a meeting starting from the meeting's start time
func (s *OccurrenceService) CalculateOccurrences(meeting *models.Meeting, limit int) []models.Occurrence {
	if meeting == nil {
		return []models.Occurrence{}
	}

	return s.CalculateOccurrencesFromDate(meeting, meeting.StartTime, limit)
}

// CalculateOccurrencesFromDate calculates occurrences for a meeting starting from a specific date
func (s *OccurrenceService) CalculateOccurrencesFromDate(meeting *models.Meeting, fromDate time.Time, limit int) []models.Occurrence {
	if meeting == nil || limit <= 0 {
		return []models.Occurrence{}
	}

	// A one-off meeting has at most one occurrence: its own start time.
	if !meeting.IsRecurring() {
		if meeting.StartTime.Before(fromDate) {
			return []models.Occurrence{}
		}
		return []models.Occurrence{s.createOccurrence(meeting, meeting.StartTime)}
	}

	rule, err := s.parseRule(meeting)
	if err != nil {
		slog.Warn("invalid meeting recurrence rule",
			"meeting_uid", meeting.UID,
			"recurrence", meeting.Recurrence,
			"error", err,
		)
		return []models.Occurrence{}
	}

	var occurrences []models.Occurrence
	next := rule.Iterator()
	for {
		start, ok := next()
		if !ok {
			break
		}
		if start.Before(fromDate) {
			continue
		}
		occurrences = append(occurrences, s.createOccurrence(meeting, start))
		if len(occurrences) >= limit {
			break
		}
	}

	return occurrences
}

// OccurrenceFor resolves which scheduled occurrence a join timestamp belongs
// to: the latest occurrence starting no later than the join time, as long as
// it falls within the lookback window. For one-off meetings the meeting's own
// start time is the only candidate, accepted unconditionally so late-created
// directory entries still match.
func (s *OccurrenceService) OccurrenceFor(meeting *models.Meeting, joinTime time.Time) *models.Occurrence {
	if meeting == nil {
		return nil
	}

	if !meeting.IsRecurring() {
		occurrence := s.createOccurrence(meeting, meeting.StartTime)
		return &occurrence
	}

	rule, err := s.parseRule(meeting)
	if err != nil {
		slog.Warn("invalid meeting recurrence rule",
			"meeting_uid", meeting.UID,
			"recurrence", meeting.Recurrence,
			"error", err,
		)
		return nil
	}

	start := rule.Before(joinTime, true)
	if start.IsZero() {
		return nil
	}

	lookback := joinTime.Add(-constants.OccurrenceLookbackHours * time.Hour)
	if start.Before(lookback) {
		return nil
	}

	occurrence := s.createOccurrence(meeting, start)
	return &occurrence
}

// parseRule builds the recurrence rule anchored at the meeting's start time in
// the meeting's timezone. An explicit DTSTART inside the RRULE string is not
// expected; the directory stores the start time separately.
func (s *OccurrenceService) parseRule(meeting *models.Meeting) (*rrule.RRule, error) {
	loc, err := time.LoadLocation(meeting.Timezone)
	if err != nil {
		loc = time.UTC
	}

	rule, err := rrule.StrToRRule(meeting.Recurrence)
	if err != nil {
		return nil, err
	}

	rule.DTStart(meeting.StartTime.In(loc))
	return rule, nil
}

// createOccurrence creates an occurrence for a meeting at a given start time.
// Occurrence IDs are the occurrence's Unix start timestamp, which keeps them
// stable across recalculation.
func (s *OccurrenceService) createOccurrence(meeting *models.Meeting, startTime time.Time) models.Occurrence {
	return models.Occurrence{
		OccurrenceID:    utils.FormatOccurrenceID(startTime),
		StartTime:       startTime.UTC(),
		DurationMinutes: meeting.DurationMinutes,
	}
}
