// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/internal/metrics"
	"github.com/proofmeet/court-card-service/pkg/concurrent"
	"github.com/proofmeet/court-card-service/pkg/utils"
)

// FinalizationService is the orchestrator that turns a completed attendance
// session into a court card. It is the only pipeline component with side
// effects; everything it calls is a pure function over its inputs.
type FinalizationService struct {
	meetingRepository  domain.MeetingRepository
	sessionRepository  domain.AttendanceSessionRepository
	timelineRepository domain.ActivityTimelineRepository
	cardRepository     domain.CourtCardRepository
	identityClient     domain.IdentityClient
	messageBuilder     domain.MessageBuilder

	normalizer   *TimelineNormalizer
	calculator   *DurationCalculator
	scorer       *EngagementScorer
	validator    *ComplianceValidator
	chainBuilder *IntegrityChainBuilder
}

// NewFinalizationService creates a new FinalizationService.
func NewFinalizationService(
	meetingRepository domain.MeetingRepository,
	sessionRepository domain.AttendanceSessionRepository,
	timelineRepository domain.ActivityTimelineRepository,
	cardRepository domain.CourtCardRepository,
	identityClient domain.IdentityClient,
	messageBuilder domain.MessageBuilder,
	engagementConfig EngagementConfig,
) *FinalizationService {
	return &FinalizationService{
		meetingRepository:  meetingRepository,
		sessionRepository:  sessionRepository,
		timelineRepository: timelineRepository,
		cardRepository:     cardRepository,
		identityClient:     identityClient,
		messageBuilder:     messageBuilder,
		normalizer:         NewTimelineNormalizer(),
		calculator:         NewDurationCalculator(),
		scorer:             NewEngagementScorer(engagementConfig),
		validator:          NewComplianceValidator(),
		chainBuilder:       NewIntegrityChainBuilder(),
	}
}

// ServiceReady checks if the service is ready to finalize sessions.
func (s *FinalizationService) ServiceReady() bool {
	return s.meetingRepository != nil &&
		s.sessionRepository != nil &&
		s.timelineRepository != nil &&
		s.cardRepository != nil &&
		s.messageBuilder != nil
}

// Finalize runs the full pipeline for one session and persists the resulting
// card. It is idempotent: if a card already exists for the session, that card
// is returned unchanged, including when a concurrent call wins the create
// race. A session without a leave time is a retriable not-ready condition,
// not a terminal failure.
func (s *FinalizationService) Finalize(ctx context.Context, sessionUID string) (*models.CourtCard, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("finalization service not ready")
	}

	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	session, err := s.sessionRepository.Get(ctx, sessionUID)
	if err != nil {
		metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeError).Inc()
		return nil, err
	}

	if existing, err := s.cardRepository.GetBySessionUID(ctx, sessionUID); err == nil {
		slog.DebugContext(ctx, "session already finalized, returning existing card", "card_uid", existing.UID)
		metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeIdempotentHit).Inc()
		return existing, nil
	} else if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
		metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeError).Inc()
		return nil, err
	}

	if !session.IsCompleted() {
		metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeNotReady).Inc()
		return nil, domain.NewNotReadyError("session is not ready to finalize", domain.ErrSessionNotReady)
	}

	card, err := s.buildCard(ctx, session)
	if err != nil {
		metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeError).Inc()
		return nil, err
	}

	if err := s.cardRepository.Create(ctx, card); err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeConflict {
			// A concurrent finalize won the create race; its card is the card.
			existing, getErr := s.cardRepository.GetBySessionUID(ctx, sessionUID)
			if getErr != nil {
				metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeError).Inc()
				return nil, getErr
			}
			metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeIdempotentHit).Inc()
			return existing, nil
		}
		metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeError).Inc()
		return nil, err
	}

	slog.InfoContext(ctx, "finalized attendance session",
		"card_uid", card.UID,
		"card_number", card.CardNumber,
		"validation_status", card.ValidationStatus,
		"chain_position", card.ChainPosition,
	)
	metrics.FinalizationsTotal.WithLabelValues(metrics.FinalizationOutcomeFinalized).Inc()

	s.sendCardCreatedMessages(ctx, card)

	return card, nil
}

// buildCard runs the pure pipeline stages and assembles the card with its
// integrity chain link.
func (s *FinalizationService) buildCard(ctx context.Context, session *models.AttendanceSession) (*models.CourtCard, error) {
	timeline, err := s.timelineRepository.GetTimeline(ctx, session.UID)
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return nil, err
		}
		// No heartbeats at all is a valid (if suspicious) session; the scorer
		// and validator account for it.
		timeline = nil
	}

	normalized := s.normalizer.Normalize(ctx, timeline)

	breakdown, err := s.calculator.Calculate(session, normalized)
	if err != nil {
		return nil, err
	}

	engagement := s.scorer.Score(ctx, normalized, breakdown.TotalDurationMin)

	status, violations := s.validator.Validate(ValidationInput{
		Breakdown:  *breakdown,
		Engagement: engagement,
		// A reconstructed join time means the provider never confirmed the
		// session's timestamps.
		HasProviderTimestamps: !session.JoinTimeReconstructed,
		HasActivityData:       len(normalized) > 0,
	})

	meetingName := ""
	if meeting, err := s.meetingRepository.Get(ctx, session.MeetingUID); err == nil {
		meetingName = meeting.Name
	} else {
		slog.WarnContext(ctx, "meeting not found while finalizing, card will carry no meeting name",
			"meeting_uid", session.MeetingUID, logging.ErrKey, err)
	}

	meetingDate := s.meetingDate(session)
	now := time.Now().UTC()

	card := &models.CourtCard{
		UID:              uuid.New().String(),
		CardNumber:       models.NewCardNumber(meetingDate),
		SessionUID:       session.UID,
		ParticipantUID:   session.ParticipantUID,
		CaseID:           session.CaseID,
		MeetingUID:       session.MeetingUID,
		MeetingName:      meetingName,
		MeetingDate:      meetingDate.Format("2006-01-02"),
		JoinTime:         session.JoinTime,
		LeaveTime:        *session.LeaveTime,
		Breakdown:        *breakdown,
		Engagement:       engagement,
		ValidationStatus: status,
		Violations:       violations,
		CreatedAt:        &now,
		UpdatedAt:        &now,
	}

	priorCards, err := s.cardRepository.ListByParticipant(ctx, session.ParticipantUID)
	if err != nil {
		return nil, err
	}

	var previous *models.CourtCard
	if len(priorCards) > 0 {
		previous = priorCards[len(priorCards)-1]
	}
	s.chainBuilder.BuildLink(card, previous, len(priorCards))

	return card, nil
}

// meetingDate resolves the scheduled date of the occurrence the session
// belongs to. Occurrence IDs carry the occurrence's Unix start time; when the
// session has none, the authoritative join time stands in.
func (s *FinalizationService) meetingDate(session *models.AttendanceSession) time.Time {
	if session.OccurrenceID != "" {
		if start, err := utils.ParseOccurrenceID(session.OccurrenceID); err == nil {
			return start
		}
	}
	return session.JoinTime.UTC()
}

// sendCardCreatedMessages fans out the post-persist index and access-control
// messages. Messaging failures are logged, never propagated: the card is
// already the source of truth.
func (s *FinalizationService) sendCardCreatedMessages(ctx context.Context, card *models.CourtCard) {
	accessMessage := models.CourtCardAccessMessage{
		UID:                card.UID,
		ParticipantUID:     card.ParticipantUID,
		CaseID:             card.CaseID,
		ParticipantCanRead: true,
	}

	if s.identityClient != nil {
		if enrollment, err := s.identityClient.GetEnrollment(ctx, card.ParticipantUID); err == nil {
			accessMessage.CourtRepUsername = enrollment.CourtRepUsername
		} else {
			slog.WarnContext(ctx, "could not resolve enrollment for card access grant",
				"participant_uid", card.ParticipantUID, logging.ErrKey, err)
		}
	}

	pool := concurrent.NewWorkerPool(2)
	errs := pool.RunAll(ctx,
		func() error {
			return s.messageBuilder.SendIndexCourtCard(ctx, models.ActionCreated, *card)
		},
		func() error {
			return s.messageBuilder.SendUpdateAccessCourtCard(ctx, accessMessage)
		},
	)
	if len(errs) > 0 {
		slog.ErrorContext(ctx, "failed to send card creation messages",
			"card_uid", card.UID,
			"errors", errs,
			logging.PriorityCritical(),
		)
	}
}
