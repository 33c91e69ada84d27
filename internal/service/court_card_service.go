// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/internal/metrics"
)

// CardVerificationResult is the outcome of recomputation-based verification
// of one card.
type CardVerificationResult struct {
	IsValid    bool `json:"is_valid"`
	IsTampered bool `json:"is_tampered"`
}

// ChainVerificationResult is the outcome of full-chain verification across a
// participant's cards.
type ChainVerificationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// CourtCardService serves card queries and integrity verification. Stored
// hashes are never rewritten: a mismatch flips the tamper flag, the one
// write-once exception a card has.
type CourtCardService struct {
	cardRepository domain.CourtCardRepository
	messageBuilder domain.MessageBuilder
	chainBuilder   *IntegrityChainBuilder
}

// NewCourtCardService creates a new CourtCardService.
func NewCourtCardService(
	cardRepository domain.CourtCardRepository,
	messageBuilder domain.MessageBuilder,
) *CourtCardService {
	return &CourtCardService{
		cardRepository: cardRepository,
		messageBuilder: messageBuilder,
		chainBuilder:   NewIntegrityChainBuilder(),
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *CourtCardService) ServiceReady() bool {
	return s.cardRepository != nil && s.messageBuilder != nil
}

// GetCard fetches one court card.
func (s *CourtCardService) GetCard(ctx context.Context, cardUID string) (*models.CourtCard, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("court card service not ready")
	}
	return s.cardRepository.Get(ctx, cardUID)
}

// ListParticipantCards returns the participant's cards in chain order.
func (s *CourtCardService) ListParticipantCards(ctx context.Context, participantUID string) ([]*models.CourtCard, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("court card service not ready")
	}
	return s.cardRepository.ListByParticipant(ctx, participantUID)
}

// VerifyCard recomputes the card's content hash and compares it against the
// stored one. A detected mismatch persists the tamper flag and re-indexes the
// card; the mismatch is surfaced, never auto-corrected.
func (s *CourtCardService) VerifyCard(ctx context.Context, cardUID string) (*CardVerificationResult, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("court card service not ready")
	}

	ctx = logging.AppendCtx(ctx, slog.String("card_uid", cardUID))

	card, revision, err := s.cardRepository.GetWithRevision(ctx, cardUID)
	if err != nil {
		metrics.ChainVerificationsTotal.WithLabelValues(metrics.ChainVerificationResultError).Inc()
		return nil, err
	}

	if s.chainBuilder.VerifyCard(card) {
		metrics.ChainVerificationsTotal.WithLabelValues(metrics.ChainVerificationResultValid).Inc()
		return &CardVerificationResult{IsValid: true, IsTampered: card.IsTampered}, nil
	}

	metrics.ChainVerificationsTotal.WithLabelValues(metrics.ChainVerificationResultInvalid).Inc()

	if !card.IsTampered {
		if err := s.markTampered(ctx, card, revision); err != nil {
			return nil, err
		}
	}

	return &CardVerificationResult{IsValid: false, IsTampered: true}, nil
}

// VerifyChain verifies a participant's full ordered card chain: positions,
// per-card content hashes, and the previous-hash links between consecutive
// cards. Cards whose own content hash fails verification get their tamper
// flag persisted, the same as single-card verification.
func (s *CourtCardService) VerifyChain(ctx context.Context, participantUID string) (*ChainVerificationResult, error) {
	if !s.ServiceReady() {
		return nil, domain.NewUnavailableError("court card service not ready")
	}

	ctx = logging.AppendCtx(ctx, slog.String("participant_uid", participantUID))

	cards, err := s.cardRepository.ListByParticipant(ctx, participantUID)
	if err != nil {
		metrics.ChainVerificationsTotal.WithLabelValues(metrics.ChainVerificationResultError).Inc()
		return nil, err
	}

	isValid, errs := s.chainBuilder.VerifyChain(cards)
	if isValid {
		metrics.ChainVerificationsTotal.WithLabelValues(metrics.ChainVerificationResultValid).Inc()
		return &ChainVerificationResult{IsValid: true}, nil
	}

	metrics.ChainVerificationsTotal.WithLabelValues(metrics.ChainVerificationResultInvalid).Inc()

	for _, card := range cards {
		if s.chainBuilder.VerifyCard(card) || card.IsTampered {
			continue
		}
		tampered, revision, err := s.cardRepository.GetWithRevision(ctx, card.UID)
		if err != nil {
			slog.ErrorContext(ctx, "could not load card to persist tamper flag",
				"card_uid", card.UID, logging.ErrKey, err)
			continue
		}
		if tampered.IsTampered {
			continue
		}
		if err := s.markTampered(ctx, tampered, revision); err != nil {
			slog.ErrorContext(ctx, "could not persist tamper flag",
				"card_uid", card.UID, logging.ErrKey, err)
		}
	}

	return &ChainVerificationResult{IsValid: false, Errors: errs}, nil
}

// markTampered persists the tamper flag and emits the audit trail: an index
// update plus a log record that must page. The stored hash fields stay as
// they were issued.
func (s *CourtCardService) markTampered(ctx context.Context, card *models.CourtCard, revision uint64) error {
	card.IsTampered = true
	if err := s.cardRepository.Update(ctx, card, revision); err != nil {
		return err
	}

	metrics.TamperedCardsTotal.Inc()
	slog.ErrorContext(ctx, "court card content no longer matches its issued hash",
		"card_uid", card.UID,
		"card_number", card.CardNumber,
		"participant_uid", card.ParticipantUID,
		logging.PriorityCritical(),
	)

	if err := s.messageBuilder.SendIndexCourtCard(ctx, models.ActionUpdated, *card); err != nil {
		slog.ErrorContext(ctx, "failed to send tampered card index message",
			"card_uid", card.UID, logging.ErrKey, err, logging.PriorityCritical())
	}

	return nil
}
