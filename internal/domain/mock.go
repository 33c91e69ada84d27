// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// MockMeetingRepository implements MeetingRepository for testing
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

func (m *MockMeetingRepository) Exists(ctx context.Context, meetingUID string) (bool, error) {
	args := m.Called(ctx, meetingUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMeetingRepository) Delete(ctx context.Context, meetingUID string, revision uint64) error {
	args := m.Called(ctx, meetingUID, revision)
	return args.Error(0)
}

func (m *MockMeetingRepository) Get(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.Meeting), args.Get(1).(uint64), args.Error(2)
}

func (m *MockMeetingRepository) Update(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	args := m.Called(ctx, meeting, revision)
	return args.Error(0)
}

func (m *MockMeetingRepository) GetByPlatformMeetingID(ctx context.Context, platform, platformMeetingID string) (*models.Meeting, error) {
	args := m.Called(ctx, platform, platformMeetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) ListAll(ctx context.Context) ([]*models.Meeting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Meeting), args.Error(1)
}

// MockAttendanceSessionRepository implements AttendanceSessionRepository for testing
type MockAttendanceSessionRepository struct {
	mock.Mock
}

func (m *MockAttendanceSessionRepository) Create(ctx context.Context, session *models.AttendanceSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockAttendanceSessionRepository) Exists(ctx context.Context, sessionUID string) (bool, error) {
	args := m.Called(ctx, sessionUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttendanceSessionRepository) Get(ctx context.Context, sessionUID string) (*models.AttendanceSession, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceSession), args.Error(1)
}

func (m *MockAttendanceSessionRepository) GetWithRevision(ctx context.Context, sessionUID string) (*models.AttendanceSession, uint64, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.AttendanceSession), args.Get(1).(uint64), args.Error(2)
}

func (m *MockAttendanceSessionRepository) Update(ctx context.Context, session *models.AttendanceSession, revision uint64) error {
	args := m.Called(ctx, session, revision)
	return args.Error(0)
}

func (m *MockAttendanceSessionRepository) GetByPlatformSessionUID(ctx context.Context, platformSessionUID string) (*models.AttendanceSession, error) {
	args := m.Called(ctx, platformSessionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttendanceSession), args.Error(1)
}

func (m *MockAttendanceSessionRepository) ListByParticipant(ctx context.Context, participantUID string) ([]*models.AttendanceSession, error) {
	args := m.Called(ctx, participantUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AttendanceSession), args.Error(1)
}

// MockActivityTimelineRepository implements ActivityTimelineRepository for testing
type MockActivityTimelineRepository struct {
	mock.Mock
}

func (m *MockActivityTimelineRepository) GetTimeline(ctx context.Context, sessionUID string) ([]models.ActivityEvent, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityEvent), args.Error(1)
}

func (m *MockActivityTimelineRepository) GetTimelineWithRevision(ctx context.Context, sessionUID string) ([]models.ActivityEvent, uint64, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).([]models.ActivityEvent), args.Get(1).(uint64), args.Error(2)
}

func (m *MockActivityTimelineRepository) PutTimeline(ctx context.Context, sessionUID string, events []models.ActivityEvent, revision uint64) error {
	args := m.Called(ctx, sessionUID, events, revision)
	return args.Error(0)
}

func (m *MockActivityTimelineRepository) Delete(ctx context.Context, sessionUID string, revision uint64) error {
	args := m.Called(ctx, sessionUID, revision)
	return args.Error(0)
}

// MockCourtCardRepository implements CourtCardRepository for testing
type MockCourtCardRepository struct {
	mock.Mock
}

func (m *MockCourtCardRepository) Create(ctx context.Context, card *models.CourtCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCourtCardRepository) Exists(ctx context.Context, cardUID string) (bool, error) {
	args := m.Called(ctx, cardUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCourtCardRepository) Get(ctx context.Context, cardUID string) (*models.CourtCard, error) {
	args := m.Called(ctx, cardUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CourtCard), args.Error(1)
}

func (m *MockCourtCardRepository) GetWithRevision(ctx context.Context, cardUID string) (*models.CourtCard, uint64, error) {
	args := m.Called(ctx, cardUID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(uint64), args.Error(2)
	}
	return args.Get(0).(*models.CourtCard), args.Get(1).(uint64), args.Error(2)
}

func (m *MockCourtCardRepository) Update(ctx context.Context, card *models.CourtCard, revision uint64) error {
	args := m.Called(ctx, card, revision)
	return args.Error(0)
}

func (m *MockCourtCardRepository) GetBySessionUID(ctx context.Context, sessionUID string) (*models.CourtCard, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CourtCard), args.Error(1)
}

func (m *MockCourtCardRepository) ListByParticipant(ctx context.Context, participantUID string) ([]*models.CourtCard, error) {
	args := m.Called(ctx, participantUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CourtCard), args.Error(1)
}

// MockIdentityClient implements IdentityClient for testing
type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) ResolveParticipant(ctx context.Context, email, platformUserID string) (*models.ParticipantIdentity, error) {
	args := m.Called(ctx, email, platformUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParticipantIdentity), args.Error(1)
}

func (m *MockIdentityClient) GetEnrollment(ctx context.Context, participantUID string) (*models.Enrollment, error) {
	args := m.Called(ctx, participantUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

// MockHeartbeatLimiter implements HeartbeatLimiter for testing
type MockHeartbeatLimiter struct {
	mock.Mock
}

func (m *MockHeartbeatLimiter) Admit(ctx context.Context, sessionUID string, ts time.Time) (HeartbeatAdmission, error) {
	args := m.Called(ctx, sessionUID, ts)
	return args.Get(0).(HeartbeatAdmission), args.Error(1)
}

// MockOccurrenceService implements OccurrenceService for testing
type MockOccurrenceService struct {
	mock.Mock
}

func (m *MockOccurrenceService) CalculateOccurrences(meeting *models.Meeting, limit int) []models.Occurrence {
	args := m.Called(meeting, limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Occurrence)
}

func (m *MockOccurrenceService) CalculateOccurrencesFromDate(meeting *models.Meeting, fromDate time.Time, limit int) []models.Occurrence {
	args := m.Called(meeting, fromDate, limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Occurrence)
}

func (m *MockOccurrenceService) OccurrenceFor(meeting *models.Meeting, joinTime time.Time) *models.Occurrence {
	args := m.Called(meeting, joinTime)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Occurrence)
}
