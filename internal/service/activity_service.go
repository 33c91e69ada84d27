// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/internal/metrics"
)

// timelinePutRetries bounds optimistic-concurrency retries when concurrent
// heartbeats race on the same timeline.
const timelinePutRetries = 3

// ActivityService ingests monitor heartbeats into per-session timelines.
// Ingestion is permissive: unknown event kinds are accepted here and dropped
// later during normalization, and duplicate or rate-limited heartbeats are
// acknowledged without being stored.
type ActivityService struct {
	sessionRepository  domain.AttendanceSessionRepository
	timelineRepository domain.ActivityTimelineRepository
	heartbeatLimiter   domain.HeartbeatLimiter
	validate           *validator.Validate
}

// NewActivityService creates a new ActivityService.
func NewActivityService(
	sessionRepository domain.AttendanceSessionRepository,
	timelineRepository domain.ActivityTimelineRepository,
	heartbeatLimiter domain.HeartbeatLimiter,
) *ActivityService {
	return &ActivityService{
		sessionRepository:  sessionRepository,
		timelineRepository: timelineRepository,
		heartbeatLimiter:   heartbeatLimiter,
		validate:           validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ServiceReady checks if the service is ready to ingest heartbeats.
func (s *ActivityService) ServiceReady() bool {
	return s.sessionRepository != nil &&
		s.timelineRepository != nil &&
		s.heartbeatLimiter != nil
}

// RecordHeartbeat validates and appends one heartbeat to the session's
// timeline. Heartbeats for completed sessions are rejected: the provider has
// already closed the session, so late client signals cannot change it.
func (s *ActivityService) RecordHeartbeat(ctx context.Context, sessionUID string, req models.SubmitActivityRequest) (domain.HeartbeatAdmission, error) {
	if !s.ServiceReady() {
		return domain.HeartbeatAccepted, domain.NewUnavailableError("activity service not ready")
	}

	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	if err := s.validate.Struct(&req); err != nil {
		metrics.HeartbeatsTotal.WithLabelValues(metrics.HeartbeatResultRejected).Inc()
		return domain.HeartbeatAccepted, domain.NewValidationError("invalid heartbeat payload", err, domain.ErrValidationFailed)
	}

	session, err := s.sessionRepository.Get(ctx, sessionUID)
	if err != nil {
		metrics.HeartbeatsTotal.WithLabelValues(metrics.HeartbeatResultRejected).Inc()
		return domain.HeartbeatAccepted, err
	}
	if session.IsCompleted() {
		metrics.HeartbeatsTotal.WithLabelValues(metrics.HeartbeatResultRejected).Inc()
		return domain.HeartbeatAccepted, domain.NewConflictError("session already completed", domain.ErrSessionCompleted)
	}

	admission, err := s.heartbeatLimiter.Admit(ctx, sessionUID, req.Timestamp)
	if err != nil {
		// Admission control is a safeguard, not a gate: when it is unavailable
		// the heartbeat is stored anyway so attendance evidence is not lost.
		slog.WarnContext(ctx, "heartbeat admission check failed, accepting heartbeat", logging.ErrKey, err)
		admission = domain.HeartbeatAccepted
	}

	switch admission {
	case domain.HeartbeatDuplicate:
		metrics.HeartbeatsTotal.WithLabelValues(metrics.HeartbeatResultDuplicate).Inc()
		return admission, nil
	case domain.HeartbeatRateLimited:
		metrics.HeartbeatsTotal.WithLabelValues(metrics.HeartbeatResultRateLimited).Inc()
		slog.WarnContext(ctx, "heartbeat rate limit exceeded")
		return admission, nil
	}

	if err := s.appendEvent(ctx, sessionUID, req.ToActivityEvent()); err != nil {
		metrics.HeartbeatsTotal.WithLabelValues(metrics.HeartbeatResultRejected).Inc()
		return domain.HeartbeatAccepted, err
	}

	metrics.HeartbeatsTotal.WithLabelValues(metrics.HeartbeatResultAccepted).Inc()
	return domain.HeartbeatAccepted, nil
}

// GetTimeline returns the session's raw, unnormalized timeline.
func (s *ActivityService) GetTimeline(ctx context.Context, sessionUID string) ([]models.ActivityEvent, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("activity service not ready")
	}

	timeline, err := s.timelineRepository.GetTimeline(ctx, sessionUID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return []models.ActivityEvent{}, nil
		}
		return nil, err
	}
	return timeline, nil
}

// appendEvent appends one event with optimistic-concurrency retries.
func (s *ActivityService) appendEvent(ctx context.Context, sessionUID string, event models.ActivityEvent) error {
	var lastErr error
	for attempt := 0; attempt < timelinePutRetries; attempt++ {
		timeline, revision, err := s.timelineRepository.GetTimelineWithRevision(ctx, sessionUID)
		if err != nil {
			if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
				return err
			}
			timeline, revision = nil, 0
		}

		timeline = append(timeline, event)

		err = s.timelineRepository.PutTimeline(ctx, sessionUID, timeline, revision)
		if err == nil {
			return nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeConflict {
			return err
		}
		lastErr = err
	}

	return domain.NewConflictError("timeline update lost the concurrency race", lastErr)
}
