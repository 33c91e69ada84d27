// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
)

type activityServiceMocks struct {
	sessionRepository  *domain.MockAttendanceSessionRepository
	timelineRepository *domain.MockActivityTimelineRepository
	heartbeatLimiter   *domain.MockHeartbeatLimiter
}

func newActivityService() (*ActivityService, *activityServiceMocks) {
	m := &activityServiceMocks{
		sessionRepository:  &domain.MockAttendanceSessionRepository{},
		timelineRepository: &domain.MockActivityTimelineRepository{},
		heartbeatLimiter:   &domain.MockHeartbeatLimiter{},
	}
	service := NewActivityService(m.sessionRepository, m.timelineRepository, m.heartbeatLimiter)
	return service, m
}

func TestActivityService_RecordHeartbeat(t *testing.T) {
	ctx := context.Background()
	join := mustParseTime("2025-06-02T19:00:00Z")
	ts := join.Add(5 * time.Minute)
	notFound := domain.NewNotFoundError("not found")

	openSession := func() *models.AttendanceSession {
		return &models.AttendanceSession{
			UID:      "session-1",
			JoinTime: join,
			Status:   models.SessionStatusInProgress,
		}
	}

	request := models.SubmitActivityRequest{
		Kind:      string(models.EventKindActive),
		Timestamp: ts,
		Source:    "monitor",
		Metadata:  map[string]string{models.TagFocus: "true"},
	}

	tests := []struct {
		name              string
		request           models.SubmitActivityRequest
		setupMocks        func(*activityServiceMocks)
		expectedAdmission domain.HeartbeatAdmission
		wantErr           bool
		errType           domain.ErrorType
		validate          func(*testing.T, *activityServiceMocks)
	}{
		{
			name:    "valid heartbeat is appended to the timeline",
			request: request,
			setupMocks: func(m *activityServiceMocks) {
				m.sessionRepository.On("Get", mock.Anything, "session-1").Return(openSession(), nil)
				m.heartbeatLimiter.On("Admit", mock.Anything, "session-1", ts).Return(domain.HeartbeatAccepted, nil)
				m.timelineRepository.On("GetTimelineWithRevision", mock.Anything, "session-1").Return(nil, uint64(0), notFound)
				m.timelineRepository.On("PutTimeline", mock.Anything, "session-1", mock.MatchedBy(func(events []models.ActivityEvent) bool {
					return len(events) == 1 && events[0].Kind == models.EventKindActive && events[0].Timestamp.Equal(ts)
				}), uint64(0)).Return(nil)
			},
			expectedAdmission: domain.HeartbeatAccepted,
			validate: func(t *testing.T, m *activityServiceMocks) {
				m.timelineRepository.AssertExpectations(t)
			},
		},
		{
			name:    "duplicate heartbeat is acknowledged without storing",
			request: request,
			setupMocks: func(m *activityServiceMocks) {
				m.sessionRepository.On("Get", mock.Anything, "session-1").Return(openSession(), nil)
				m.heartbeatLimiter.On("Admit", mock.Anything, "session-1", ts).Return(domain.HeartbeatDuplicate, nil)
			},
			expectedAdmission: domain.HeartbeatDuplicate,
			validate: func(t *testing.T, m *activityServiceMocks) {
				m.timelineRepository.AssertNotCalled(t, "PutTimeline", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:    "rate-limited heartbeat is acknowledged without storing",
			request: request,
			setupMocks: func(m *activityServiceMocks) {
				m.sessionRepository.On("Get", mock.Anything, "session-1").Return(openSession(), nil)
				m.heartbeatLimiter.On("Admit", mock.Anything, "session-1", ts).Return(domain.HeartbeatRateLimited, nil)
			},
			expectedAdmission: domain.HeartbeatRateLimited,
			validate: func(t *testing.T, m *activityServiceMocks) {
				m.timelineRepository.AssertNotCalled(t, "PutTimeline", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:    "limiter outage accepts the heartbeat anyway",
			request: request,
			setupMocks: func(m *activityServiceMocks) {
				m.sessionRepository.On("Get", mock.Anything, "session-1").Return(openSession(), nil)
				m.heartbeatLimiter.On("Admit", mock.Anything, "session-1", ts).Return(domain.HeartbeatAccepted, domain.NewUnavailableError("redis down"))
				m.timelineRepository.On("GetTimelineWithRevision", mock.Anything, "session-1").Return(nil, uint64(0), notFound)
				m.timelineRepository.On("PutTimeline", mock.Anything, "session-1", mock.Anything, uint64(0)).Return(nil)
			},
			expectedAdmission: domain.HeartbeatAccepted,
			validate: func(t *testing.T, m *activityServiceMocks) {
				m.timelineRepository.AssertExpectations(t)
			},
		},
		{
			name:    "heartbeat for a completed session is rejected",
			request: request,
			setupMocks: func(m *activityServiceMocks) {
				m.sessionRepository.On("Get", mock.Anything, "session-1").Return(&models.AttendanceSession{
					UID:       "session-1",
					JoinTime:  join,
					LeaveTime: timePtr(join.Add(time.Hour)),
					Status:    models.SessionStatusCompleted,
				}, nil)
			},
			wantErr: true,
			errType: domain.ErrorTypeConflict,
		},
		{
			name:    "unknown session is rejected",
			request: request,
			setupMocks: func(m *activityServiceMocks) {
				m.sessionRepository.On("Get", mock.Anything, "session-1").Return(nil, notFound)
			},
			wantErr: true,
			errType: domain.ErrorTypeNotFound,
		},
		{
			name:       "missing kind fails validation",
			request:    models.SubmitActivityRequest{Timestamp: ts},
			setupMocks: func(m *activityServiceMocks) {},
			wantErr:    true,
			errType:    domain.ErrorTypeValidation,
		},
		{
			name:       "missing timestamp fails validation",
			request:    models.SubmitActivityRequest{Kind: string(models.EventKindActive)},
			setupMocks: func(m *activityServiceMocks) {},
			wantErr:    true,
			errType:    domain.ErrorTypeValidation,
		},
		{
			name:    "concurrent timeline writers are retried",
			request: request,
			setupMocks: func(m *activityServiceMocks) {
				m.sessionRepository.On("Get", mock.Anything, "session-1").Return(openSession(), nil)
				m.heartbeatLimiter.On("Admit", mock.Anything, "session-1", ts).Return(domain.HeartbeatAccepted, nil)
				m.timelineRepository.On("GetTimelineWithRevision", mock.Anything, "session-1").Return([]models.ActivityEvent{}, uint64(2), nil)
				m.timelineRepository.On("PutTimeline", mock.Anything, "session-1", mock.Anything, uint64(2)).Return(domain.NewConflictError("revision mismatch")).Once()
				m.timelineRepository.On("PutTimeline", mock.Anything, "session-1", mock.Anything, uint64(2)).Return(nil).Once()
			},
			expectedAdmission: domain.HeartbeatAccepted,
			validate: func(t *testing.T, m *activityServiceMocks) {
				m.timelineRepository.AssertNumberOfCalls(t, "PutTimeline", 2)
			},
		},
		{
			name:    "persistent write conflicts give up with a conflict error",
			request: request,
			setupMocks: func(m *activityServiceMocks) {
				m.sessionRepository.On("Get", mock.Anything, "session-1").Return(openSession(), nil)
				m.heartbeatLimiter.On("Admit", mock.Anything, "session-1", ts).Return(domain.HeartbeatAccepted, nil)
				m.timelineRepository.On("GetTimelineWithRevision", mock.Anything, "session-1").Return([]models.ActivityEvent{}, uint64(2), nil)
				m.timelineRepository.On("PutTimeline", mock.Anything, "session-1", mock.Anything, uint64(2)).Return(domain.NewConflictError("revision mismatch"))
			},
			wantErr: true,
			errType: domain.ErrorTypeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newActivityService()
			tt.setupMocks(m)

			admission, err := service.RecordHeartbeat(ctx, "session-1", tt.request)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.errType, domain.GetErrorType(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedAdmission, admission)
			if tt.validate != nil {
				tt.validate(t, m)
			}
		})
	}
}

func TestActivityService_GetTimeline(t *testing.T) {
	ctx := context.Background()
	notFound := domain.NewNotFoundError("not found")

	t.Run("existing timeline is returned", func(t *testing.T) {
		service, m := newActivityService()
		events := []models.ActivityEvent{{Timestamp: mustParseTime("2025-06-02T19:00:30Z"), Kind: models.EventKindActive}}
		m.timelineRepository.On("GetTimeline", mock.Anything, "session-1").Return(events, nil)

		timeline, err := service.GetTimeline(ctx, "session-1")
		require.NoError(t, err)
		assert.Equal(t, events, timeline)
	})

	t.Run("missing timeline is an empty list, not an error", func(t *testing.T) {
		service, m := newActivityService()
		m.timelineRepository.On("GetTimeline", mock.Anything, "session-1").Return(nil, notFound)

		timeline, err := service.GetTimeline(ctx, "session-1")
		require.NoError(t, err)
		assert.Empty(t, timeline)
	})
}
