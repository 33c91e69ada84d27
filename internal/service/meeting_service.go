// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
)

// MeetingService maintains the recovery-meeting directory the webhook
// handlers resolve events against. Directory sync from external sources is
// out of scope; entries are written through the admin NATS subject.
type MeetingService struct {
	meetingRepository domain.MeetingRepository
	validate          *validator.Validate
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(meetingRepository domain.MeetingRepository) *MeetingService {
	return &MeetingService{
		meetingRepository: meetingRepository,
		validate:          validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *MeetingService) ServiceReady() bool {
	return s.meetingRepository != nil
}

// GetMeeting fetches one meeting directory entry.
func (s *MeetingService) GetMeeting(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("meeting service not ready")
	}
	return s.meetingRepository.Get(ctx, meetingUID)
}

// GetByPlatformMeetingID resolves the directory entry for a provider meeting
// identifier.
func (s *MeetingService) GetByPlatformMeetingID(ctx context.Context, platform, platformMeetingID string) (*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("meeting service not ready")
	}
	return s.meetingRepository.GetByPlatformMeetingID(ctx, platform, platformMeetingID)
}

// ListMeetings returns all meeting directory entries.
func (s *MeetingService) ListMeetings(ctx context.Context) ([]*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("meeting service not ready")
	}
	return s.meetingRepository.ListAll(ctx)
}

// PutMeeting creates or replaces a meeting directory entry. The recurrence
// rule is parsed up front so a bad rule is rejected here instead of
// surfacing later during occurrence resolution.
func (s *MeetingService) PutMeeting(ctx context.Context, req models.PutMeetingRequest) (*models.Meeting, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("meeting service not ready")
	}

	if err := s.validate.Struct(&req); err != nil {
		return nil, domain.NewValidationError("invalid meeting payload", err, domain.ErrValidationFailed)
	}
	if req.Recurrence != "" {
		if _, err := rrule.StrToRRule(req.Recurrence); err != nil {
			return nil, domain.NewValidationError("invalid recurrence rule", err, domain.ErrValidationFailed)
		}
	}

	meeting := req.ToMeeting()
	now := time.Now().UTC()

	if meeting.UID == "" {
		meeting.UID = uuid.New().String()
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_uid", meeting.UID))

	existing, revision, err := s.meetingRepository.GetWithRevision(ctx, meeting.UID)
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return nil, err
		}

		meeting.CreatedAt = &now
		meeting.UpdatedAt = &now
		if err := s.meetingRepository.Create(ctx, meeting); err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "created meeting directory entry", "platform_meeting_id", meeting.PlatformMeetingID)
		return meeting, nil
	}

	meeting.CreatedAt = existing.CreatedAt
	meeting.UpdatedAt = &now
	if err := s.meetingRepository.Update(ctx, meeting, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "replaced meeting directory entry", "platform_meeting_id", meeting.PlatformMeetingID)
	return meeting, nil
}
