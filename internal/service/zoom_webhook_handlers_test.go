// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/mocks"
	"github.com/proofmeet/court-card-service/internal/domain/models"
)

func marshalWebhookEvent(t *testing.T, eventType string, payload map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(models.ZoomWebhookEventMessage{
		EventType: eventType,
		EventTS:   1748891000,
		Payload:   payload,
	})
	require.NoError(t, err)
	return data
}

func zoomJoinedPayload(joinTime time.Time) map[string]any {
	return map[string]any{
		"object": map[string]any{
			"uuid": "abc==",
			"id":   "987654321",
			"participant": map[string]any{
				"user_id":   "16778240",
				"user_name": "Casey M",
				"id":        "zoom-user-1",
				"join_time": joinTime.Format(time.RFC3339),
				"email":     "casey@example.org",
			},
		},
	}
}

func zoomLeftPayload(leaveTime time.Time, durationSeconds int) map[string]any {
	return map[string]any{
		"object": map[string]any{
			"uuid": "abc==",
			"id":   "987654321",
			"participant": map[string]any{
				"user_id":    "16778240",
				"user_name":  "Casey M",
				"id":         "zoom-user-1",
				"leave_time": leaveTime.Format(time.RFC3339),
				"duration":   durationSeconds,
				"email":      "casey@example.org",
			},
		},
	}
}

func TestAttendanceSessionService_HandleZoomParticipantJoined(t *testing.T) {
	ctx := context.Background()
	start := mustParseTime("2025-06-02T19:00:00Z")
	joinTime := start.Add(2 * time.Minute)
	notFound := domain.NewNotFoundError("not found")

	t.Run("tracked meeting creates a session", func(t *testing.T) {
		service, m := newAttendanceSessionService()
		m.sessionRepository.On("GetByPlatformSessionUID", mock.Anything, "abc==:16778240").Return(nil, notFound)
		m.meetingRepository.On("GetByPlatformMeetingID", mock.Anything, "Zoom", "987654321").Return(directoryMeeting(start), nil)
		m.identityClient.On("ResolveParticipant", mock.Anything, "casey@example.org", "zoom-user-1").Return(&models.ParticipantIdentity{UID: "participant-1"}, nil)
		m.identityClient.On("GetEnrollment", mock.Anything, "participant-1").Return(&models.Enrollment{CaseID: "case-42"}, nil)
		m.occurrenceService.On("OccurrenceFor", mock.Anything, mock.Anything).Return(&models.Occurrence{
			OccurrenceID:    "1748890800",
			StartTime:       start,
			DurationMinutes: 60,
		})
		m.sessionRepository.On("Create", mock.Anything, mock.MatchedBy(func(session *models.AttendanceSession) bool {
			return session.PlatformSessionUID == "abc==:16778240" &&
				session.ParticipantUID == "participant-1" &&
				session.JoinTime.Equal(joinTime)
		})).Return(nil)
		m.messageBuilder.On("SendIndexAttendanceSession", mock.Anything, models.ActionCreated, mock.Anything).Return(nil)

		msg := mocks.NewMockMessage(
			marshalWebhookEvent(t, "meeting.participant_joined", zoomJoinedPayload(joinTime)),
			models.ZoomWebhookMeetingParticipantJoinedSubject,
		)

		response, err := service.HandleZoomParticipantJoined(ctx, msg)
		require.NoError(t, err)
		assert.Nil(t, response)
		m.sessionRepository.AssertExpectations(t)
	})

	t.Run("untracked meeting is skipped without error", func(t *testing.T) {
		service, m := newAttendanceSessionService()
		m.sessionRepository.On("GetByPlatformSessionUID", mock.Anything, "abc==:16778240").Return(nil, notFound)
		m.meetingRepository.On("GetByPlatformMeetingID", mock.Anything, "Zoom", "987654321").Return(nil, notFound)

		msg := mocks.NewMockMessage(
			marshalWebhookEvent(t, "meeting.participant_joined", zoomJoinedPayload(joinTime)),
			models.ZoomWebhookMeetingParticipantJoinedSubject,
		)

		_, err := service.HandleZoomParticipantJoined(ctx, msg)
		require.NoError(t, err)
		m.sessionRepository.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("malformed message fails", func(t *testing.T) {
		service, _ := newAttendanceSessionService()
		msg := mocks.NewMockMessage([]byte("{not json"), models.ZoomWebhookMeetingParticipantJoinedSubject)

		_, err := service.HandleZoomParticipantJoined(ctx, msg)
		require.Error(t, err)
	})
}

func TestAttendanceSessionService_HandleZoomParticipantLeft(t *testing.T) {
	ctx := context.Background()
	start := mustParseTime("2025-06-02T19:00:00Z")
	joinTime := start.Add(2 * time.Minute)
	leaveTime := start.Add(55 * time.Minute)

	t.Run("leave event completes the open session", func(t *testing.T) {
		service, m := newAttendanceSessionService()
		open := &models.AttendanceSession{
			UID:                "session-1",
			PlatformSessionUID: "abc==:16778240",
			JoinTime:           joinTime,
			Status:             models.SessionStatusInProgress,
		}
		m.sessionRepository.On("GetByPlatformSessionUID", mock.Anything, "abc==:16778240").Return(open, nil)
		m.sessionRepository.On("GetWithRevision", mock.Anything, "session-1").Return(open, uint64(2), nil)
		m.sessionRepository.On("Update", mock.Anything, mock.MatchedBy(func(session *models.AttendanceSession) bool {
			return session.IsCompleted() && session.LeaveTime.Equal(leaveTime)
		}), uint64(2)).Return(nil)
		m.messageBuilder.On("SendIndexAttendanceSession", mock.Anything, models.ActionUpdated, mock.Anything).Return(nil)
		m.messageBuilder.On("SendFinalizeSession", mock.Anything, models.SessionFinalizeMessage{SessionUID: "session-1"}).Return(nil)

		msg := mocks.NewMockMessage(
			marshalWebhookEvent(t, "meeting.participant_left", zoomLeftPayload(leaveTime, 3180)),
			models.ZoomWebhookMeetingParticipantLeftSubject,
		)

		response, err := service.HandleZoomParticipantLeft(ctx, msg)
		require.NoError(t, err)
		assert.Nil(t, response)
		m.messageBuilder.AssertExpectations(t)
	})

	t.Run("untracked meeting is skipped without error", func(t *testing.T) {
		service, m := newAttendanceSessionService()
		notFound := domain.NewNotFoundError("not found")
		m.sessionRepository.On("GetByPlatformSessionUID", mock.Anything, "abc==:16778240").Return(nil, notFound)
		m.meetingRepository.On("GetByPlatformMeetingID", mock.Anything, "Zoom", "987654321").Return(nil, notFound)

		msg := mocks.NewMockMessage(
			marshalWebhookEvent(t, "meeting.participant_left", zoomLeftPayload(leaveTime, 3180)),
			models.ZoomWebhookMeetingParticipantLeftSubject,
		)

		_, err := service.HandleZoomParticipantLeft(ctx, msg)
		require.NoError(t, err)
		m.sessionRepository.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAttendanceSessionService_HandleZoomMeetingEnded(t *testing.T) {
	ctx := context.Background()
	start := mustParseTime("2025-06-02T19:00:00Z")

	service, m := newAttendanceSessionService()

	msg := mocks.NewMockMessage(
		marshalWebhookEvent(t, "meeting.ended", map[string]any{
			"object": map[string]any{
				"uuid":       "abc==",
				"id":         "987654321",
				"topic":      "Tuesday Night Recovery",
				"start_time": start.Format(time.RFC3339),
				"end_time":   start.Add(time.Hour).Format(time.RFC3339),
				"duration":   60,
			},
		}),
		models.ZoomWebhookMeetingEndedSubject,
	)

	response, err := service.HandleZoomMeetingEnded(ctx, msg)
	require.NoError(t, err)
	assert.Nil(t, response)
	// Informational only: sessions close via their own participant_left events.
	m.sessionRepository.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
