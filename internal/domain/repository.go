// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// MeetingRepository defines the interface for meeting directory storage operations.
// This interface can be implemented by different storage backends (NATS, PostgreSQL, etc.)
type MeetingRepository interface {
	// Meeting full operations
	Create(ctx context.Context, meeting *models.Meeting) error
	Exists(ctx context.Context, meetingUID string) (bool, error)
	Delete(ctx context.Context, meetingUID string, revision uint64) error

	// Meeting base operations
	Get(ctx context.Context, meetingUID string) (*models.Meeting, error)
	GetWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error)
	Update(ctx context.Context, meeting *models.Meeting, revision uint64) error

	// Lookup by the provider's meeting identifier, used by webhook handlers.
	GetByPlatformMeetingID(ctx context.Context, platform, platformMeetingID string) (*models.Meeting, error)

	// Bulk operations
	ListAll(ctx context.Context) ([]*models.Meeting, error)
}

// AttendanceSessionRepository defines the interface for attendance session storage operations.
type AttendanceSessionRepository interface {
	Create(ctx context.Context, session *models.AttendanceSession) error
	Exists(ctx context.Context, sessionUID string) (bool, error)

	Get(ctx context.Context, sessionUID string) (*models.AttendanceSession, error)
	GetWithRevision(ctx context.Context, sessionUID string) (*models.AttendanceSession, uint64, error)
	Update(ctx context.Context, session *models.AttendanceSession, revision uint64) error

	// Lookup by the provider-side session identity, used to dedupe replayed webhooks.
	GetByPlatformSessionUID(ctx context.Context, platformSessionUID string) (*models.AttendanceSession, error)

	ListByParticipant(ctx context.Context, participantUID string) ([]*models.AttendanceSession, error)
}

// ActivityTimelineRepository defines the interface for per-session activity
// timeline storage. Timelines are stored whole and rewritten on append, with
// revision-based optimistic concurrency guarding concurrent heartbeats.
type ActivityTimelineRepository interface {
	GetTimeline(ctx context.Context, sessionUID string) ([]models.ActivityEvent, error)
	GetTimelineWithRevision(ctx context.Context, sessionUID string) ([]models.ActivityEvent, uint64, error)
	// PutTimeline replaces the timeline. A zero revision creates the timeline;
	// otherwise the write only succeeds against the given revision.
	PutTimeline(ctx context.Context, sessionUID string, events []models.ActivityEvent, revision uint64) error
	Delete(ctx context.Context, sessionUID string, revision uint64) error
}

// CourtCardRepository defines the interface for court card storage operations.
type CourtCardRepository interface {
	// Create persists a new card. It fails with a conflict error if a card
	// already exists for the session, which keeps finalization idempotent
	// under concurrent triggers.
	Create(ctx context.Context, card *models.CourtCard) error
	Exists(ctx context.Context, cardUID string) (bool, error)

	Get(ctx context.Context, cardUID string) (*models.CourtCard, error)
	GetWithRevision(ctx context.Context, cardUID string) (*models.CourtCard, uint64, error)
	// Update exists only for the tamper flag; card content is write-once.
	Update(ctx context.Context, card *models.CourtCard, revision uint64) error

	GetBySessionUID(ctx context.Context, sessionUID string) (*models.CourtCard, error)
	// ListByParticipant returns the participant's cards in chain order.
	ListByParticipant(ctx context.Context, participantUID string) ([]*models.CourtCard, error)
}
