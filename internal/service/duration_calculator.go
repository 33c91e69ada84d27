// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"time"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// DurationCalculator derives the attended-time accounting for a session from
// the authoritative join/leave timestamps and the normalized activity
// timeline. It is stateless and safe for concurrent use.
type DurationCalculator struct{}

// NewDurationCalculator creates a new DurationCalculator.
func NewDurationCalculator() *DurationCalculator {
	return &DurationCalculator{}
}

// Calculate computes the duration breakdown for a completed session.
// The leave time is required: duration is never computed speculatively while
// the provider still considers the participant present.
func (c *DurationCalculator) Calculate(session *models.AttendanceSession, timeline []models.ActivityEvent) (*models.DurationBreakdown, error) {
	if session == nil {
		return nil, domain.NewValidationError("session is required")
	}
	if session.LeaveTime == nil {
		return nil, domain.NewValidationError("session has no leave time", domain.ErrSessionNotReady)
	}
	if session.ScheduledDurationMinutes <= 0 {
		return nil, domain.NewValidationError("session has no scheduled duration")
	}

	totalDurationMin := int(session.LeaveTime.Sub(session.JoinTime) / time.Minute)
	if totalDurationMin < 0 {
		totalDurationMin = 0
	}

	idleDurationMin := c.idleMinutesFromGaps(timeline, *session.LeaveTime)
	if idleDurationMin > totalDurationMin {
		idleDurationMin = totalDurationMin
	}

	// The scheduled duration is the denominator, not the attended duration:
	// a participant who stays past the scheduled end must not show >100%.
	attendancePercent := float64(totalDurationMin) / float64(session.ScheduledDurationMinutes) * 100
	if attendancePercent > 100 {
		attendancePercent = 100
	}

	return &models.DurationBreakdown{
		TotalDurationMin:  totalDurationMin,
		ActiveDurationMin: totalDurationMin - idleDurationMin,
		IdleDurationMin:   idleDurationMin,
		AttendancePercent: attendancePercent,
	}, nil
}

// idleMinutesFromGaps sums the gaps between each LEAVE event and its matching
// REJOIN, or the session end for an unmatched LEAVE. Outside explicit
// leave/rejoin marks all attended time counts as active: presence, not
// fine-grained attentiveness, is the ground truth signal.
func (c *DurationCalculator) idleMinutesFromGaps(timeline []models.ActivityEvent, sessionEnd time.Time) int {
	var idle time.Duration
	var leftAt *time.Time

	for i := range timeline {
		event := timeline[i]
		switch event.Kind {
		case models.EventKindLeave:
			if leftAt == nil {
				ts := event.Timestamp
				leftAt = &ts
			}
		case models.EventKindRejoin:
			if leftAt != nil {
				if gap := event.Timestamp.Sub(*leftAt); gap > 0 {
					idle += gap
				}
				leftAt = nil
			}
		}
	}

	if leftAt != nil {
		if gap := sessionEnd.Sub(*leftAt); gap > 0 {
			idle += gap
		}
	}

	return int(idle / time.Minute)
}
