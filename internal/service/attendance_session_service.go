// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/pkg/redaction"
	"github.com/proofmeet/court-card-service/pkg/utils"
)

// AttendanceSessionService owns the session lifecycle: create-on-join,
// provider-side dedup, and the set-once leave transition. Join and leave
// timestamps come only from the provider's webhooks; heartbeats never touch
// them.
type AttendanceSessionService struct {
	meetingRepository  domain.MeetingRepository
	sessionRepository  domain.AttendanceSessionRepository
	timelineRepository domain.ActivityTimelineRepository
	cardRepository     domain.CourtCardRepository
	identityClient     domain.IdentityClient
	occurrenceService  domain.OccurrenceService
	messageBuilder     domain.MessageBuilder
}

// NewAttendanceSessionService creates a new AttendanceSessionService.
func NewAttendanceSessionService(
	meetingRepository domain.MeetingRepository,
	sessionRepository domain.AttendanceSessionRepository,
	timelineRepository domain.ActivityTimelineRepository,
	cardRepository domain.CourtCardRepository,
	identityClient domain.IdentityClient,
	occurrenceService domain.OccurrenceService,
	messageBuilder domain.MessageBuilder,
) *AttendanceSessionService {
	return &AttendanceSessionService{
		meetingRepository:  meetingRepository,
		sessionRepository:  sessionRepository,
		timelineRepository: timelineRepository,
		cardRepository:     cardRepository,
		identityClient:     identityClient,
		occurrenceService:  occurrenceService,
		messageBuilder:     messageBuilder,
	}
}

// ServiceReady checks if the service is ready to handle requests.
func (s *AttendanceSessionService) ServiceReady() bool {
	return s.meetingRepository != nil &&
		s.sessionRepository != nil &&
		s.timelineRepository != nil &&
		s.cardRepository != nil &&
		s.occurrenceService != nil &&
		s.messageBuilder != nil
}

// StartSessionRequest carries the provider-reported join data.
type StartSessionRequest struct {
	Platform           string
	PlatformMeetingID  string
	PlatformSessionUID string
	ParticipantEmail   string
	PlatformUserID     string
	ParticipantName    string
	JoinTime           time.Time
}

// EndSessionRequest carries the provider-reported leave data. DurationSeconds
// is the provider's own attended-seconds accounting, used to reconstruct the
// join time when the join event was missed.
type EndSessionRequest struct {
	Platform           string
	PlatformMeetingID  string
	PlatformSessionUID string
	ParticipantEmail   string
	PlatformUserID     string
	ParticipantName    string
	LeaveTime          time.Time
	DurationSeconds    int
}

// GetSession fetches one attendance session.
func (s *AttendanceSessionService) GetSession(ctx context.Context, sessionUID string) (*models.AttendanceSession, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("attendance session service not ready")
	}
	return s.sessionRepository.Get(ctx, sessionUID)
}

// StartSession creates the session for a provider join event, deduplicating
// by the provider's session UID: a replayed or re-joined webhook for an open
// session reuses it and records a REJOIN event, while a fresh provider
// session UID creates a new session.
func (s *AttendanceSessionService) StartSession(ctx context.Context, req StartSessionRequest) (*models.AttendanceSession, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("attendance session service not ready")
	}
	if req.PlatformSessionUID == "" {
		return nil, domain.NewValidationError("platform session UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("platform_session_uid", req.PlatformSessionUID))

	existing, err := s.sessionRepository.GetByPlatformSessionUID(ctx, req.PlatformSessionUID)
	if err == nil {
		return s.rejoinSession(ctx, existing, req.JoinTime)
	}
	if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
		return nil, err
	}

	meeting, err := s.meetingRepository.GetByPlatformMeetingID(ctx, req.Platform, req.PlatformMeetingID)
	if err != nil {
		return nil, err
	}

	participantUID, participantEmail, caseID := s.resolveParticipant(ctx, req.ParticipantEmail, req.PlatformUserID)

	occurrenceID := ""
	scheduledDuration := meeting.DurationMinutes
	if occurrence := s.occurrenceService.OccurrenceFor(meeting, req.JoinTime); occurrence != nil {
		occurrenceID = occurrence.OccurrenceID
		scheduledDuration = occurrence.DurationMinutes
	} else {
		slog.WarnContext(ctx, "no scheduled occurrence matches the join time",
			"meeting_uid", meeting.UID, "join_time", req.JoinTime)
	}

	now := time.Now().UTC()
	session := &models.AttendanceSession{
		UID:                      uuid.New().String(),
		MeetingUID:               meeting.UID,
		OccurrenceID:             occurrenceID,
		ParticipantUID:           participantUID,
		ParticipantEmail:         participantEmail,
		ParticipantName:          req.ParticipantName,
		CaseID:                   caseID,
		PlatformSessionUID:       req.PlatformSessionUID,
		JoinTime:                 req.JoinTime.UTC(),
		ScheduledDurationMinutes: scheduledDuration,
		Status:                   models.SessionStatusInProgress,
		CreatedAt:                &now,
		UpdatedAt:                &now,
	}

	if err := s.sessionRepository.Create(ctx, session); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "created attendance session",
		"session_uid", session.UID,
		"meeting_uid", session.MeetingUID,
		"participant_uid", session.ParticipantUID,
	)

	s.sendSessionIndexMessage(ctx, models.ActionCreated, session)

	return session, nil
}

// EndSession applies a provider leave event. The leave transition happens at
// most once per session; replayed leave events are idempotent. When the join
// event was missed entirely, a completed session is reconstructed with
// JoinTime = LeaveTime - reported duration, matching the provider's own
// accounting.
func (s *AttendanceSessionService) EndSession(ctx context.Context, req EndSessionRequest) (*models.AttendanceSession, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("attendance session service not ready")
	}
	if req.PlatformSessionUID == "" {
		return nil, domain.NewValidationError("platform session UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("platform_session_uid", req.PlatformSessionUID))

	session, revision, err := s.getByPlatformSessionUIDWithRevision(ctx, req.PlatformSessionUID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return s.createMissedJoinSession(ctx, req)
		}
		return nil, err
	}

	if session.IsCompleted() {
		slog.DebugContext(ctx, "leave event replayed for completed session", "session_uid", session.UID)
		return session, nil
	}

	leaveTime := req.LeaveTime.UTC()
	now := time.Now().UTC()
	session.LeaveTime = &leaveTime
	session.Status = models.SessionStatusCompleted
	session.UpdatedAt = &now

	if err := s.sessionRepository.Update(ctx, session, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "completed attendance session",
		"session_uid", session.UID,
		"leave_time", leaveTime,
	)

	s.sendSessionIndexMessage(ctx, models.ActionUpdated, session)
	s.requestFinalization(ctx, session.UID)

	return session, nil
}

// rejoinSession handles a join event for a provider session UID we already
// track. A completed session is reopened only because the provider itself is
// reporting the participant back in the same session; the earlier leave is
// preserved as a LEAVE/REJOIN pair on the timeline so the duration gap scan
// sees it. Once the session has been finalized into a card, the card is
// immutable evidence: the rejoin starts a successor session instead of
// reopening, so the new segment earns its own card.
func (s *AttendanceSessionService) rejoinSession(ctx context.Context, session *models.AttendanceSession, joinTime time.Time) (*models.AttendanceSession, error) {
	ctx = logging.AppendCtx(ctx, slog.String("session_uid", session.UID))

	if !session.IsCompleted() {
		slog.DebugContext(ctx, "join event replayed for open session")
		s.appendBridgeEvents(ctx, session.UID, nil, joinTime)
		return session, nil
	}

	if _, err := s.cardRepository.GetBySessionUID(ctx, session.UID); err == nil {
		return s.createSuccessorSession(ctx, session, joinTime)
	} else if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
		slog.WarnContext(ctx, "could not check for an existing court card, reopening session",
			logging.ErrKey, err)
	}

	previousLeave := *session.LeaveTime

	session, revision, err := s.sessionRepository.GetWithRevision(ctx, session.UID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.LeaveTime = nil
	session.Status = models.SessionStatusInProgress
	session.UpdatedAt = &now

	if err := s.sessionRepository.Update(ctx, session, revision); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "reopened attendance session after provider rejoin",
		"previous_leave_time", previousLeave,
		"rejoin_time", joinTime,
	)

	s.appendBridgeEvents(ctx, session.UID, &previousLeave, joinTime)
	s.sendSessionIndexMessage(ctx, models.ActionUpdated, session)

	return session, nil
}

// createSuccessorSession starts a fresh session for a provider rejoin that
// arrives after the original session was finalized. Creating it under the same
// provider session UID repoints the lookup index, so the provider's next leave
// event closes the successor rather than the finalized session.
func (s *AttendanceSessionService) createSuccessorSession(ctx context.Context, finalized *models.AttendanceSession, joinTime time.Time) (*models.AttendanceSession, error) {
	now := time.Now().UTC()
	session := &models.AttendanceSession{
		UID:                      uuid.New().String(),
		MeetingUID:               finalized.MeetingUID,
		OccurrenceID:             finalized.OccurrenceID,
		ParticipantUID:           finalized.ParticipantUID,
		ParticipantEmail:         finalized.ParticipantEmail,
		ParticipantName:          finalized.ParticipantName,
		CaseID:                   finalized.CaseID,
		PlatformSessionUID:       finalized.PlatformSessionUID,
		JoinTime:                 joinTime.UTC(),
		ScheduledDurationMinutes: finalized.ScheduledDurationMinutes,
		Status:                   models.SessionStatusInProgress,
		CreatedAt:                &now,
		UpdatedAt:                &now,
	}

	if err := s.sessionRepository.Create(ctx, session); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "rejoin after finalization, started successor session",
		"finalized_session_uid", finalized.UID,
		"session_uid", session.UID,
		"rejoin_time", session.JoinTime,
	)

	s.sendSessionIndexMessage(ctx, models.ActionCreated, session)

	return session, nil
}

// createMissedJoinSession reconstructs a completed session from a leave event
// whose join event never arrived.
func (s *AttendanceSessionService) createMissedJoinSession(ctx context.Context, req EndSessionRequest) (*models.AttendanceSession, error) {
	meeting, err := s.meetingRepository.GetByPlatformMeetingID(ctx, req.Platform, req.PlatformMeetingID)
	if err != nil {
		return nil, err
	}

	leaveTime := req.LeaveTime.UTC()
	joinTime := leaveTime.Add(-time.Duration(req.DurationSeconds) * time.Second)

	participantUID, participantEmail, caseID := s.resolveParticipant(ctx, req.ParticipantEmail, req.PlatformUserID)

	occurrenceID := ""
	scheduledDuration := meeting.DurationMinutes
	if occurrence := s.occurrenceService.OccurrenceFor(meeting, joinTime); occurrence != nil {
		occurrenceID = occurrence.OccurrenceID
		scheduledDuration = occurrence.DurationMinutes
	}

	now := time.Now().UTC()
	session := &models.AttendanceSession{
		UID:                      uuid.New().String(),
		MeetingUID:               meeting.UID,
		OccurrenceID:             occurrenceID,
		ParticipantUID:           participantUID,
		ParticipantEmail:         participantEmail,
		ParticipantName:          req.ParticipantName,
		CaseID:                   caseID,
		PlatformSessionUID:       req.PlatformSessionUID,
		JoinTime:                 joinTime,
		LeaveTime:                &leaveTime,
		JoinTimeReconstructed:    true,
		ScheduledDurationMinutes: scheduledDuration,
		Status:                   models.SessionStatusCompleted,
		CreatedAt:                &now,
		UpdatedAt:                &now,
	}

	if err := s.sessionRepository.Create(ctx, session); err != nil {
		return nil, err
	}

	slog.WarnContext(ctx, "reconstructed session from leave event, join event was missed",
		"session_uid", session.UID,
		"join_time", joinTime,
		"leave_time", leaveTime,
	)

	s.sendSessionIndexMessage(ctx, models.ActionCreated, session)
	s.requestFinalization(ctx, session.UID)

	return session, nil
}

// resolveParticipant maps the webhook identity to a registered participant
// and their case enrollment. Identity lookups are best effort: a webhook must
// never be dropped because the identity subsystem is unreachable, so the
// provider identity stands in when resolution fails.
func (s *AttendanceSessionService) resolveParticipant(ctx context.Context, email, platformUserID string) (participantUID, participantEmail, caseID string) {
	participantUID = utils.CoalesceString(platformUserID, email)
	participantEmail = email

	if s.identityClient == nil {
		return participantUID, participantEmail, ""
	}

	identity, err := s.identityClient.ResolveParticipant(ctx, email, platformUserID)
	if err != nil {
		slog.WarnContext(ctx, "could not resolve participant identity, using provider identity",
			"email", redaction.RedactEmail(email),
			"platform_user_id", platformUserID,
			logging.ErrKey, err)
		return participantUID, participantEmail, ""
	}
	participantUID = identity.UID
	if identity.Email != "" {
		participantEmail = identity.Email
	}

	enrollment, err := s.identityClient.GetEnrollment(ctx, identity.UID)
	if err != nil {
		slog.WarnContext(ctx, "could not resolve participant enrollment",
			"participant_uid", identity.UID, logging.ErrKey, err)
		return participantUID, participantEmail, ""
	}

	return participantUID, participantEmail, enrollment.CaseID
}

// appendBridgeEvents records the LEAVE/REJOIN pair for a provider-reported
// gap on the surviving session's timeline. Best effort: a lost bridge event
// under-counts idle time, which the policy prefers over failing the webhook.
func (s *AttendanceSessionService) appendBridgeEvents(ctx context.Context, sessionUID string, leaveTime *time.Time, rejoinTime time.Time) {
	timeline, revision, err := s.timelineRepository.GetTimelineWithRevision(ctx, sessionUID)
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			slog.WarnContext(ctx, "could not load timeline for bridge events", logging.ErrKey, err)
			return
		}
		timeline, revision = nil, 0
	}

	if leaveTime != nil {
		timeline = append(timeline, models.ActivityEvent{
			Timestamp: leaveTime.UTC(),
			Kind:      models.EventKindLeave,
			Source:    "provider",
		})
	}
	timeline = append(timeline, models.ActivityEvent{
		Timestamp: rejoinTime.UTC(),
		Kind:      models.EventKindRejoin,
		Source:    "provider",
	})

	if err := s.timelineRepository.PutTimeline(ctx, sessionUID, timeline, revision); err != nil {
		slog.WarnContext(ctx, "could not record bridge events", logging.ErrKey, err)
	}
}

func (s *AttendanceSessionService) getByPlatformSessionUIDWithRevision(ctx context.Context, platformSessionUID string) (*models.AttendanceSession, uint64, error) {
	session, err := s.sessionRepository.GetByPlatformSessionUID(ctx, platformSessionUID)
	if err != nil {
		return nil, 0, err
	}
	return s.sessionRepository.GetWithRevision(ctx, session.UID)
}

// sendSessionIndexMessage publishes the session to the platform indexer.
// Indexing failures never fail the triggering operation.
func (s *AttendanceSessionService) sendSessionIndexMessage(ctx context.Context, action models.MessageAction, session *models.AttendanceSession) {
	if err := s.messageBuilder.SendIndexAttendanceSession(ctx, action, *session); err != nil {
		slog.ErrorContext(ctx, "failed to send session index message",
			"session_uid", session.UID,
			logging.ErrKey, err,
			logging.PriorityCritical(),
		)
	}
}

// requestFinalization publishes the finalize request for async processing.
func (s *AttendanceSessionService) requestFinalization(ctx context.Context, sessionUID string) {
	message := models.SessionFinalizeMessage{SessionUID: sessionUID}
	if err := s.messageBuilder.SendFinalizeSession(ctx, message); err != nil {
		slog.ErrorContext(ctx, "failed to request session finalization",
			"session_uid", sessionUID,
			logging.ErrKey, fmt.Errorf("publish finalize request: %w", err),
			logging.PriorityCritical(),
		)
	}
}
