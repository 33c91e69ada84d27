// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
)

// zoomPlatform is the directory platform name Zoom webhook events resolve
// against.
const zoomPlatform = "Zoom"

// parseZoomWebhookEvent is a helper to parse webhook event messages
func (s *AttendanceSessionService) parseZoomWebhookEvent(ctx context.Context, msg domain.Message) (*models.ZoomWebhookEventMessage, error) {
	var webhookEvent models.ZoomWebhookEventMessage
	if err := json.Unmarshal(msg.Data(), &webhookEvent); err != nil {
		slog.ErrorContext(ctx, "failed to unmarshal Zoom webhook event", logging.ErrKey, err)
		return nil, err
	}
	return &webhookEvent, nil
}

// HandleZoomParticipantJoined handles meeting.participant_joined webhook events
func (s *AttendanceSessionService) HandleZoomParticipantJoined(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseZoomWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("event_type", webhookEvent.EventType))
	err = s.handleParticipantJoinedEvent(ctx, *webhookEvent)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle participant joined event", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "successfully processed participant joined event")
	return nil, nil // No response needed for webhook events
}

// HandleZoomParticipantLeft handles meeting.participant_left webhook events
func (s *AttendanceSessionService) HandleZoomParticipantLeft(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseZoomWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("event_type", webhookEvent.EventType))
	err = s.handleParticipantLeftEvent(ctx, *webhookEvent)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle participant left event", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "successfully processed participant left event")
	return nil, nil // No response needed for webhook events
}

// HandleZoomMeetingEnded handles meeting.ended webhook events
func (s *AttendanceSessionService) HandleZoomMeetingEnded(ctx context.Context, msg domain.Message) ([]byte, error) {
	webhookEvent, err := s.parseZoomWebhookEvent(ctx, msg)
	if err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("event_type", webhookEvent.EventType))
	err = s.handleMeetingEndedEvent(ctx, *webhookEvent)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle meeting ended event", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "successfully processed meeting ended event")
	return nil, nil // No response needed for webhook events
}

// handleParticipantJoinedEvent processes meeting.participant_joined events
func (s *AttendanceSessionService) handleParticipantJoinedEvent(ctx context.Context, event models.ZoomWebhookEventMessage) error {
	payload, err := event.ToParticipantJoinedPayload()
	if err != nil {
		slog.ErrorContext(ctx, "failed to convert to typed participant joined payload", logging.ErrKey, err)
		return fmt.Errorf("failed to parse participant joined payload: %w", err)
	}

	participant := payload.Object.Participant
	slog.InfoContext(ctx, "processing participant joined event",
		"zoom_meeting_uuid", payload.Object.UUID,
		"zoom_meeting_id", payload.Object.ID,
		"participant_id", participant.ID,
		"participant_name", participant.UserName,
		"join_time", participant.JoinTime,
	)

	session, err := s.StartSession(ctx, StartSessionRequest{
		Platform:           zoomPlatform,
		PlatformMeetingID:  payload.Object.ID,
		PlatformSessionUID: zoomPlatformSessionUID(payload.Object.UUID, participant.UserID),
		ParticipantEmail:   participant.Email,
		PlatformUserID:     participant.ID,
		ParticipantName:    participant.UserName,
		JoinTime:           participant.JoinTime,
	})
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			// Zoom delivers events for every meeting on the account; ones we do
			// not track are not errors.
			slog.DebugContext(ctx, "join event for untracked meeting, skipping",
				"zoom_meeting_id", payload.Object.ID)
			return nil
		}
		return err
	}

	slog.DebugContext(ctx, "attendance session active", "session_uid", session.UID)
	return nil
}

// handleParticipantLeftEvent processes meeting.participant_left events
func (s *AttendanceSessionService) handleParticipantLeftEvent(ctx context.Context, event models.ZoomWebhookEventMessage) error {
	payload, err := event.ToParticipantLeftPayload()
	if err != nil {
		slog.ErrorContext(ctx, "failed to convert to typed participant left payload", logging.ErrKey, err)
		return fmt.Errorf("failed to parse participant left payload: %w", err)
	}

	participant := payload.Object.Participant
	slog.InfoContext(ctx, "processing participant left event",
		"zoom_meeting_uuid", payload.Object.UUID,
		"zoom_meeting_id", payload.Object.ID,
		"participant_id", participant.ID,
		"participant_name", participant.UserName,
		"leave_time", participant.LeaveTime,
		"duration", participant.Duration,
	)

	session, err := s.EndSession(ctx, EndSessionRequest{
		Platform:           zoomPlatform,
		PlatformMeetingID:  payload.Object.ID,
		PlatformSessionUID: zoomPlatformSessionUID(payload.Object.UUID, participant.UserID),
		ParticipantEmail:   participant.Email,
		PlatformUserID:     participant.ID,
		ParticipantName:    participant.UserName,
		LeaveTime:          participant.LeaveTime,
		DurationSeconds:    participant.Duration,
	})
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			slog.DebugContext(ctx, "leave event for untracked meeting, skipping",
				"zoom_meeting_id", payload.Object.ID)
			return nil
		}
		return err
	}

	slog.DebugContext(ctx, "attendance session completed", "session_uid", session.UID)
	return nil
}

// handleMeetingEndedEvent processes meeting.ended events. The event is
// informational: per-participant sessions are closed by their own
// participant_left events, which Zoom sends for everyone still connected
// when the meeting ends.
func (s *AttendanceSessionService) handleMeetingEndedEvent(ctx context.Context, event models.ZoomWebhookEventMessage) error {
	payload, err := event.ToMeetingEndedPayload()
	if err != nil {
		slog.ErrorContext(ctx, "failed to convert to typed meeting ended payload", logging.ErrKey, err)
		return fmt.Errorf("failed to parse meeting ended payload: %w", err)
	}

	slog.InfoContext(ctx, "meeting ended",
		"zoom_meeting_uuid", payload.Object.UUID,
		"zoom_meeting_id", payload.Object.ID,
		"topic", payload.Object.Topic,
		"start_time", payload.Object.StartTime,
		"end_time", payload.Object.EndTime,
		"duration", payload.Object.Duration,
	)

	return nil
}

// zoomPlatformSessionUID builds the provider-side session identity: the
// meeting instance UUID plus the participant's in-meeting user ID. Replayed
// webhooks for the same instance and participant dedupe to one session.
func zoomPlatformSessionUID(meetingUUID, participantUserID string) string {
	return fmt.Sprintf("%s:%s", meetingUUID, participantUserID)
}
