// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofmeet/court-card-service/internal/domain/models"
)

func buildTestChain(t *testing.T, builder *IntegrityChainBuilder, length int) []*models.CourtCard {
	t.Helper()

	join := mustParseTime("2025-06-02T19:00:00Z")
	cards := make([]*models.CourtCard, 0, length)

	var previous *models.CourtCard
	for i := 0; i < length; i++ {
		card := &models.CourtCard{
			UID:            fmt.Sprintf("card-%d", i+1),
			SessionUID:     fmt.Sprintf("session-%d", i+1),
			ParticipantUID: "participant-1",
			CaseID:         "case-42",
			MeetingName:    "Tuesday Night Recovery",
			MeetingDate:    join.AddDate(0, 0, 7*i).Format("2006-01-02"),
			JoinTime:       join.AddDate(0, 0, 7*i),
			LeaveTime:      join.AddDate(0, 0, 7*i).Add(time.Hour),
			Breakdown: models.DurationBreakdown{
				TotalDurationMin:  60,
				ActiveDurationMin: 60,
				AttendancePercent: 100,
			},
		}
		builder.BuildLink(card, previous, len(cards))
		cards = append(cards, card)
		previous = card
	}
	return cards
}

func TestIntegrityChainBuilder_ContentHash(t *testing.T) {
	builder := NewIntegrityChainBuilder()
	cards := buildTestChain(t, builder, 1)
	card := cards[0]

	t.Run("hash is deterministic", func(t *testing.T) {
		assert.Equal(t, builder.ContentHash(card), builder.ContentHash(card))
		assert.Len(t, card.ContentHash, 64)
	})

	t.Run("hash covers card content", func(t *testing.T) {
		modified := *card
		modified.Breakdown.TotalDurationMin = 59
		assert.NotEqual(t, card.ContentHash, builder.ContentHash(&modified))
	})

	t.Run("hash ignores non-content fields", func(t *testing.T) {
		modified := *card
		modified.CardNumber = "CC-20250602-different"
		modified.IsTampered = true
		assert.Equal(t, card.ContentHash, builder.ContentHash(&modified))
	})
}

func TestIntegrityChainBuilder_BuildLink(t *testing.T) {
	builder := NewIntegrityChainBuilder()
	cards := buildTestChain(t, builder, 3)

	t.Run("positions are sequential from one", func(t *testing.T) {
		for i, card := range cards {
			assert.Equal(t, i+1, card.ChainPosition)
		}
	})

	t.Run("first card has no previous hash", func(t *testing.T) {
		assert.Nil(t, cards[0].PreviousCardHash)
		assert.Equal(t, builder.ChainHash(nil, cards[0].ContentHash), cards[0].ChainHash)
	})

	t.Run("each card links to its predecessor", func(t *testing.T) {
		for i := 1; i < len(cards); i++ {
			require.NotNil(t, cards[i].PreviousCardHash)
			assert.Equal(t, cards[i-1].ContentHash, *cards[i].PreviousCardHash)
		}
	})
}

func TestIntegrityChainBuilder_VerifyCard(t *testing.T) {
	builder := NewIntegrityChainBuilder()
	cards := buildTestChain(t, builder, 1)

	t.Run("unmodified card verifies", func(t *testing.T) {
		assert.True(t, builder.VerifyCard(cards[0]))
	})

	t.Run("modified card fails verification", func(t *testing.T) {
		tampered := *cards[0]
		tampered.Breakdown.AttendancePercent = 100.0
		tampered.Breakdown.TotalDurationMin = 61
		assert.False(t, builder.VerifyCard(&tampered))
	})
}

func TestIntegrityChainBuilder_VerifyChain(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func([]*models.CourtCard)
		wantErrs int
		validate func(*testing.T, []string)
	}{
		{
			name:   "intact chain verifies",
			mutate: func([]*models.CourtCard) {},
		},
		{
			name: "mutating one card surfaces only on that card",
			mutate: func(cards []*models.CourtCard) {
				cards[1].Breakdown.TotalDurationMin = 1
			},
			wantErrs: 1,
			validate: func(t *testing.T, errs []string) {
				assert.Contains(t, errs[0], "card-2")
				assert.Contains(t, errs[0], "content hash mismatch")
			},
		},
		{
			name: "broken previous-hash link is reported",
			mutate: func(cards []*models.CourtCard) {
				bogus := "0000000000000000000000000000000000000000000000000000000000000000"
				cards[2].PreviousCardHash = &bogus
			},
			// Both the link and the derived chain hash fail.
			wantErrs: 2,
		},
		{
			name: "wrong position is reported",
			mutate: func(cards []*models.CourtCard) {
				cards[1].ChainPosition = 5
			},
			wantErrs: 1,
		},
		{
			name: "first card with a previous hash is reported",
			mutate: func(cards []*models.CourtCard) {
				hash := cards[1].ContentHash
				cards[0].PreviousCardHash = &hash
			},
			// The spurious pointer also breaks the first card's derived chain hash.
			wantErrs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewIntegrityChainBuilder()
			cards := buildTestChain(t, builder, 3)
			tt.mutate(cards)

			isValid, errs := builder.VerifyChain(cards)
			if tt.wantErrs == 0 {
				assert.True(t, isValid)
				assert.Empty(t, errs)
				return
			}

			assert.False(t, isValid)
			assert.Len(t, errs, tt.wantErrs)
			if tt.validate != nil {
				tt.validate(t, errs)
			}
		})
	}
}

// Tampering with card k must not invalidate the stored hashes of later cards.
func TestIntegrityChainBuilder_TamperIsolation(t *testing.T) {
	builder := NewIntegrityChainBuilder()
	cards := buildTestChain(t, builder, 4)

	cards[1].Breakdown.TotalDurationMin = 2

	assert.False(t, builder.VerifyCard(cards[1]))
	for _, i := range []int{0, 2, 3} {
		assert.True(t, builder.VerifyCard(cards[i]), "card %d should still verify", i+1)
	}
}
