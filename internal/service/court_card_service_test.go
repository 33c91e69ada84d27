// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/mocks"
	"github.com/proofmeet/court-card-service/internal/domain/models"
)

type cardServiceMocks struct {
	cardRepository *domain.MockCourtCardRepository
	messageBuilder *mocks.MockMessageBuilder
}

func newCourtCardService() (*CourtCardService, *cardServiceMocks) {
	m := &cardServiceMocks{
		cardRepository: &domain.MockCourtCardRepository{},
		messageBuilder: &mocks.MockMessageBuilder{},
	}
	return NewCourtCardService(m.cardRepository, m.messageBuilder), m
}

func TestCourtCardService_GetCard(t *testing.T) {
	ctx := context.Background()

	t.Run("existing card is returned", func(t *testing.T) {
		service, m := newCourtCardService()
		m.cardRepository.On("Get", mock.Anything, "card-1").Return(&models.CourtCard{UID: "card-1"}, nil)

		card, err := service.GetCard(ctx, "card-1")
		require.NoError(t, err)
		assert.Equal(t, "card-1", card.UID)
	})

	t.Run("unknown card propagates not found", func(t *testing.T) {
		service, m := newCourtCardService()
		m.cardRepository.On("Get", mock.Anything, "card-404").Return(nil, domain.NewNotFoundError("not found"))

		_, err := service.GetCard(ctx, "card-404")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
	})
}

func TestCourtCardService_VerifyCard(t *testing.T) {
	ctx := context.Background()
	builder := NewIntegrityChainBuilder()

	t.Run("intact card verifies without writes", func(t *testing.T) {
		service, m := newCourtCardService()
		cards := buildTestChain(t, builder, 1)
		m.cardRepository.On("GetWithRevision", mock.Anything, "card-1").Return(cards[0], uint64(1), nil)

		result, err := service.VerifyCard(ctx, "card-1")
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.False(t, result.IsTampered)
		m.cardRepository.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("tampered card gets its flag persisted and re-indexed", func(t *testing.T) {
		service, m := newCourtCardService()
		cards := buildTestChain(t, builder, 1)
		cards[0].Breakdown.TotalDurationMin = 90

		m.cardRepository.On("GetWithRevision", mock.Anything, "card-1").Return(cards[0], uint64(1), nil)
		m.cardRepository.On("Update", mock.Anything, mock.MatchedBy(func(card *models.CourtCard) bool {
			return card.IsTampered
		}), uint64(1)).Return(nil)
		m.messageBuilder.On("SendIndexCourtCard", mock.Anything, models.ActionUpdated, mock.Anything).Return(nil)

		result, err := service.VerifyCard(ctx, "card-1")
		require.NoError(t, err)
		assert.False(t, result.IsValid)
		assert.True(t, result.IsTampered)
		m.cardRepository.AssertExpectations(t)
		m.messageBuilder.AssertExpectations(t)
	})

	t.Run("already-flagged card is not re-flagged", func(t *testing.T) {
		service, m := newCourtCardService()
		cards := buildTestChain(t, builder, 1)
		cards[0].Breakdown.TotalDurationMin = 90
		cards[0].IsTampered = true

		m.cardRepository.On("GetWithRevision", mock.Anything, "card-1").Return(cards[0], uint64(1), nil)

		result, err := service.VerifyCard(ctx, "card-1")
		require.NoError(t, err)
		assert.False(t, result.IsValid)
		assert.True(t, result.IsTampered)
		m.cardRepository.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCourtCardService_VerifyChain(t *testing.T) {
	ctx := context.Background()
	builder := NewIntegrityChainBuilder()

	t.Run("intact chain verifies", func(t *testing.T) {
		service, m := newCourtCardService()
		cards := buildTestChain(t, builder, 3)
		m.cardRepository.On("ListByParticipant", mock.Anything, "participant-1").Return(cards, nil)

		result, err := service.VerifyChain(ctx, "participant-1")
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
	})

	t.Run("tampered card fails the chain and is flagged", func(t *testing.T) {
		service, m := newCourtCardService()
		cards := buildTestChain(t, builder, 3)
		cards[1].Breakdown.TotalDurationMin = 1

		m.cardRepository.On("ListByParticipant", mock.Anything, "participant-1").Return(cards, nil)
		m.cardRepository.On("GetWithRevision", mock.Anything, "card-2").Return(cards[1], uint64(2), nil)
		m.cardRepository.On("Update", mock.Anything, mock.MatchedBy(func(card *models.CourtCard) bool {
			return card.UID == "card-2" && card.IsTampered
		}), uint64(2)).Return(nil)
		m.messageBuilder.On("SendIndexCourtCard", mock.Anything, models.ActionUpdated, mock.Anything).Return(nil)

		result, err := service.VerifyChain(ctx, "participant-1")
		require.NoError(t, err)
		assert.False(t, result.IsValid)
		assert.NotEmpty(t, result.Errors)
		m.cardRepository.AssertExpectations(t)
	})

	t.Run("broken link without content tampering flags no cards", func(t *testing.T) {
		service, m := newCourtCardService()
		cards := buildTestChain(t, builder, 3)
		cards[1].ChainPosition = 9

		m.cardRepository.On("ListByParticipant", mock.Anything, "participant-1").Return(cards, nil)

		result, err := service.VerifyChain(ctx, "participant-1")
		require.NoError(t, err)
		assert.False(t, result.IsValid)
		m.cardRepository.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty chain is valid", func(t *testing.T) {
		service, m := newCourtCardService()
		m.cardRepository.On("ListByParticipant", mock.Anything, "participant-1").Return([]*models.CourtCard{}, nil)

		result, err := service.VerifyChain(ctx, "participant-1")
		require.NoError(t, err)
		assert.True(t, result.IsValid)
	})
}
