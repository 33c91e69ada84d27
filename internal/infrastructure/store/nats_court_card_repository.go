// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// NatsCourtCardRepository is the NATS KV store repository for court cards.
//
// Cards are keyed by their session UID, so the KV create-if-absent write is
// the uniqueness constraint: at most one card can ever exist per attendance
// session, no matter how many finalization attempts race. A secondary lookup
// entry maps the card UID back to the session key.
type NatsCourtCardRepository struct {
	*NatsBaseRepository[models.CourtCard]
	keyBuilder *KeyBuilder
}

// NewNatsCourtCardRepository creates a new NATS KV store repository for court cards.
func NewNatsCourtCardRepository(cards INatsKeyValue) *NatsCourtCardRepository {
	return &NatsCourtCardRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.CourtCard](cards, "court card"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// cardLookupKey maps a card UID to the session key the card is stored under.
func (s *NatsCourtCardRepository) cardLookupKey(cardUID string) string {
	return s.keyBuilder.LookupKeyEncoded(KeyPrefixCard, cardUID)
}

// Create persists a new card. It fails with a conflict error when a card
// already exists for the session; callers resolve that to the idempotent
// return-existing-card path.
func (s *NatsCourtCardRepository) Create(ctx context.Context, card *models.CourtCard) error {
	if card.SessionUID == "" {
		return domain.NewValidationError("court card requires a session UID")
	}
	if card.UID == "" {
		card.UID = uuid.New().String()
	}

	now := time.Now().UTC()
	card.CreatedAt = &now
	card.UpdatedAt = &now

	if err := s.CreateIfAbsent(ctx, card.SessionUID, card); err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeConflict {
			return domain.NewConflictError(
				fmt.Sprintf("court card already exists for session '%s'", card.SessionUID),
				domain.ErrCourtCardExists, err)
		}
		return err
	}

	// The lookup write lands after the atomic create. If it is lost, the card
	// is still reachable by session UID and a later verify pass can repair it.
	return s.PutIndex(ctx, s.cardLookupKey(card.UID), card.SessionUID)
}

func (s *NatsCourtCardRepository) Get(ctx context.Context, cardUID string) (*models.CourtCard, error) {
	card, _, err := s.GetWithRevision(ctx, cardUID)
	return card, err
}

func (s *NatsCourtCardRepository) GetWithRevision(ctx context.Context, cardUID string) (*models.CourtCard, uint64, error) {
	sessionUID, err := s.GetIndex(ctx, s.cardLookupKey(cardUID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, 0, domain.NewNotFoundError(
				fmt.Sprintf("court card '%s' not found", cardUID), domain.ErrCourtCardNotFound, err)
		}
		return nil, 0, err
	}

	return s.NatsBaseRepository.GetWithRevision(ctx, sessionUID)
}

func (s *NatsCourtCardRepository) Exists(ctx context.Context, cardUID string) (bool, error) {
	_, err := s.Get(ctx, cardUID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Update exists only for the tamper flag; card content is write-once.
func (s *NatsCourtCardRepository) Update(ctx context.Context, card *models.CourtCard, revision uint64) error {
	now := time.Now().UTC()
	card.UpdatedAt = &now

	return s.NatsBaseRepository.Update(ctx, card.SessionUID, card, revision)
}

func (s *NatsCourtCardRepository) GetBySessionUID(ctx context.Context, sessionUID string) (*models.CourtCard, error) {
	card, err := s.NatsBaseRepository.Get(ctx, sessionUID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError(
				fmt.Sprintf("no court card for session '%s'", sessionUID), domain.ErrCourtCardNotFound, err)
		}
		return nil, err
	}
	return card, nil
}

// ListByParticipant returns the participant's cards in chain order.
func (s *NatsCourtCardRepository) ListByParticipant(ctx context.Context, participantUID string) ([]*models.CourtCard, error) {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	cards := []*models.CourtCard{}
	for _, key := range keys {
		if strings.Contains(key, ".") {
			continue
		}
		card, err := s.NatsBaseRepository.Get(ctx, key)
		if err != nil {
			continue
		}
		if card.ParticipantUID == participantUID {
			cards = append(cards, card)
		}
	}

	sort.Slice(cards, func(i, j int) bool {
		return cards[i].ChainPosition < cards[j].ChainPosition
	})

	return cards, nil
}

// Ensure NatsCourtCardRepository implements domain.CourtCardRepository
var _ domain.CourtCardRepository = (*NatsCourtCardRepository)(nil)
