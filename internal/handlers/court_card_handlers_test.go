// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

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
	"github.com/proofmeet/court-card-service/internal/service"
)

type handlerMocks struct {
	meetingRepository  *domain.MockMeetingRepository
	sessionRepository  *domain.MockAttendanceSessionRepository
	timelineRepository *domain.MockActivityTimelineRepository
	cardRepository     *domain.MockCourtCardRepository
	identityClient     *domain.MockIdentityClient
	occurrenceService  *domain.MockOccurrenceService
	messageBuilder     *mocks.MockMessageBuilder
}

func newCourtCardHandler() (*CourtCardHandler, *handlerMocks) {
	m := &handlerMocks{
		meetingRepository:  &domain.MockMeetingRepository{},
		sessionRepository:  &domain.MockAttendanceSessionRepository{},
		timelineRepository: &domain.MockActivityTimelineRepository{},
		cardRepository:     &domain.MockCourtCardRepository{},
		identityClient:     &domain.MockIdentityClient{},
		occurrenceService:  &domain.MockOccurrenceService{},
		messageBuilder:     &mocks.MockMessageBuilder{},
	}

	attendanceSessionService := service.NewAttendanceSessionService(
		m.meetingRepository,
		m.sessionRepository,
		m.timelineRepository,
		m.cardRepository,
		m.identityClient,
		m.occurrenceService,
		m.messageBuilder,
	)
	finalizationService := service.NewFinalizationService(
		m.meetingRepository,
		m.sessionRepository,
		m.timelineRepository,
		m.cardRepository,
		m.identityClient,
		m.messageBuilder,
		service.DefaultEngagementConfig(),
	)
	meetingService := service.NewMeetingService(m.meetingRepository)

	return NewCourtCardHandler(attendanceSessionService, finalizationService, meetingService), m
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func setupFinalizableSession(t *testing.T, m *handlerMocks) {
	join := mustParseTime(t, "2025-06-02T19:00:00Z")
	leave := join.Add(time.Hour)
	notFound := domain.NewNotFoundError("not found")

	session := &models.AttendanceSession{
		UID:                      "session-1",
		MeetingUID:               "meeting-1",
		ParticipantUID:           "participant-1",
		JoinTime:                 join,
		LeaveTime:                &leave,
		ScheduledDurationMinutes: 60,
		Status:                   models.SessionStatusCompleted,
	}

	m.sessionRepository.On("Get", mock.Anything, "session-1").Return(session, nil)
	m.cardRepository.On("GetBySessionUID", mock.Anything, "session-1").Return(nil, notFound)
	m.timelineRepository.On("GetTimeline", mock.Anything, "session-1").Return(nil, notFound)
	m.meetingRepository.On("Get", mock.Anything, "meeting-1").Return(&models.Meeting{
		UID:  "meeting-1",
		Name: "Tuesday Night Recovery",
	}, nil)
	m.cardRepository.On("ListByParticipant", mock.Anything, "participant-1").Return([]*models.CourtCard{}, nil)
	m.cardRepository.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.identityClient.On("GetEnrollment", mock.Anything, "participant-1").Return(nil, notFound)
	m.messageBuilder.On("SendIndexCourtCard", mock.Anything, models.ActionCreated, mock.Anything).Return(nil)
	m.messageBuilder.On("SendUpdateAccessCourtCard", mock.Anything, mock.Anything).Return(nil)
}

func TestCourtCardHandler_HandleSessionFinalize(t *testing.T) {
	ctx := context.Background()

	t.Run("finalize request replies with the card", func(t *testing.T) {
		handler, m := newCourtCardHandler()
		setupFinalizableSession(t, m)

		data, err := json.Marshal(models.SessionFinalizeMessage{SessionUID: "session-1"})
		require.NoError(t, err)
		msg := mocks.NewMockMessage(data, models.SessionFinalizeSubject)

		response, err := handler.HandleSessionFinalize(ctx, msg)
		require.NoError(t, err)

		var card models.CourtCard
		require.NoError(t, json.Unmarshal(response, &card))
		assert.Equal(t, "session-1", card.SessionUID)
		assert.NotEmpty(t, card.CardNumber)
	})

	t.Run("empty session UID fails", func(t *testing.T) {
		handler, _ := newCourtCardHandler()
		msg := mocks.NewMockMessage([]byte(`{"session_uid":""}`), models.SessionFinalizeSubject)

		_, err := handler.HandleSessionFinalize(ctx, msg)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})

	t.Run("malformed message fails", func(t *testing.T) {
		handler, _ := newCourtCardHandler()
		msg := mocks.NewMockMessage([]byte("{not json"), models.SessionFinalizeSubject)

		_, err := handler.HandleSessionFinalize(ctx, msg)
		require.Error(t, err)
	})

	t.Run("in-progress session surfaces the retriable error", func(t *testing.T) {
		handler, m := newCourtCardHandler()
		join := mustParseTime(t, "2025-06-02T19:00:00Z")
		m.sessionRepository.On("Get", mock.Anything, "session-1").Return(&models.AttendanceSession{
			UID:      "session-1",
			JoinTime: join,
			Status:   models.SessionStatusInProgress,
		}, nil)
		m.cardRepository.On("GetBySessionUID", mock.Anything, "session-1").Return(nil, domain.NewNotFoundError("not found"))

		data, err := json.Marshal(models.SessionFinalizeMessage{SessionUID: "session-1"})
		require.NoError(t, err)

		_, err = handler.HandleSessionFinalize(ctx, mocks.NewMockMessage(data, models.SessionFinalizeSubject))
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeNotReady, domain.GetErrorType(err))
	})
}

func TestCourtCardHandler_HandleMeetingPut(t *testing.T) {
	ctx := context.Background()

	t.Run("valid put replies with the stored entry", func(t *testing.T) {
		handler, m := newCourtCardHandler()
		m.meetingRepository.On("GetWithRevision", mock.Anything, mock.Anything).Return(nil, uint64(0), domain.NewNotFoundError("not found"))
		m.meetingRepository.On("Create", mock.Anything, mock.Anything).Return(nil)

		data, err := json.Marshal(models.PutMeetingRequest{
			Name:              "Tuesday Night Recovery",
			Platform:          "Zoom",
			PlatformMeetingID: "987654321",
			StartTime:         mustParseTime(t, "2025-06-02T19:00:00Z"),
			DurationMinutes:   60,
		})
		require.NoError(t, err)

		response, err := handler.HandleMeetingPut(ctx, mocks.NewMockMessage(data, models.MeetingPutSubject))
		require.NoError(t, err)

		var meeting models.Meeting
		require.NoError(t, json.Unmarshal(response, &meeting))
		assert.NotEmpty(t, meeting.UID)
		assert.Equal(t, "987654321", meeting.PlatformMeetingID)
	})

	t.Run("invalid payload fails validation", func(t *testing.T) {
		handler, _ := newCourtCardHandler()
		msg := mocks.NewMockMessage([]byte(`{"name":"missing everything else"}`), models.MeetingPutSubject)

		_, err := handler.HandleMeetingPut(ctx, msg)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}

func TestCourtCardHandler_HandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("finalize subject replies with the card", func(t *testing.T) {
		handler, m := newCourtCardHandler()
		setupFinalizableSession(t, m)

		data, err := json.Marshal(models.SessionFinalizeMessage{SessionUID: "session-1"})
		require.NoError(t, err)
		msg := mocks.NewMockMessage(data, models.SessionFinalizeSubject)
		msg.On("HasReply").Return(true)
		msg.On("Respond", mock.MatchedBy(func(response []byte) bool {
			var card models.CourtCard
			return json.Unmarshal(response, &card) == nil && card.SessionUID == "session-1"
		})).Return(nil)

		handler.HandleMessage(ctx, msg)
		msg.AssertExpectations(t)
	})

	t.Run("unknown subject responds with nil when a reply is expected", func(t *testing.T) {
		handler, _ := newCourtCardHandler()
		msg := mocks.NewMockMessage([]byte("{}"), "proofmeet.unknown.subject")
		msg.On("HasReply").Return(true)
		msg.On("Respond", []byte(nil)).Return(nil)

		handler.HandleMessage(ctx, msg)
		msg.AssertExpectations(t)
	})

	t.Run("handler errors respond with nil", func(t *testing.T) {
		handler, _ := newCourtCardHandler()
		msg := mocks.NewMockMessage([]byte("{not json"), models.SessionFinalizeSubject)
		msg.On("HasReply").Return(true)
		msg.On("Respond", []byte(nil)).Return(nil)

		handler.HandleMessage(ctx, msg)
		msg.AssertExpectations(t)
	})
}

func TestCourtCardHandler_HandlerReady(t *testing.T) {
	handler, _ := newCourtCardHandler()
	assert.True(t, handler.HandlerReady())
}
