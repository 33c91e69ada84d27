// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// chainGenesisHash is the previous-hash sentinel for the first card in a
// participant's chain.
const chainGenesisHash = "0"

// cardContent is the canonical, hash-covered projection of a court card.
// Field order and formatting are part of the wire contract: changing either
// invalidates every stored hash.
type cardContent struct {
	SessionID         string  `json:"sessionId"`
	ParticipantID     string  `json:"participantId"`
	CaseID            string  `json:"caseId"`
	MeetingName       string  `json:"meetingName"`
	MeetingDate       string  `json:"meetingDate"`
	JoinTime          string  `json:"joinTime"`
	LeaveTime         string  `json:"leaveTime"`
	TotalDurationMin  int     `json:"totalDurationMin"`
	AttendancePercent float64 `json:"attendancePercent"`
}

// IntegrityChainBuilder computes and verifies the tamper-evident hash chain
// linking a participant's court cards. It is append-only: a stored hash is
// never recomputed to match new data; a mismatch is evidence of tampering,
// never auto-corrected. Stateless and safe for concurrent use.
type IntegrityChainBuilder struct{}

// NewIntegrityChainBuilder creates a new IntegrityChainBuilder.
func NewIntegrityChainBuilder() *IntegrityChainBuilder {
	return &IntegrityChainBuilder{}
}

// ContentHash computes the SHA-256 digest of the card's canonical content.
func (b *IntegrityChainBuilder) ContentHash(card *models.CourtCard) string {
	content := cardContent{
		SessionID:         card.SessionUID,
		ParticipantID:     card.ParticipantUID,
		CaseID:            card.CaseID,
		MeetingName:       card.MeetingName,
		MeetingDate:       card.MeetingDate,
		JoinTime:          card.JoinTime.UTC().Format(time.RFC3339),
		LeaveTime:         card.LeaveTime.UTC().Format(time.RFC3339),
		TotalDurationMin:  card.Breakdown.TotalDurationMin,
		AttendancePercent: card.Breakdown.AttendancePercent,
	}

	// Marshaling a struct emits fields in declaration order, which makes the
	// encoding canonical without a separate canonicalization pass.
	data, err := json.Marshal(content)
	if err != nil {
		// cardContent contains only scalar fields; Marshal cannot fail.
		panic(fmt.Sprintf("marshal card content: %v", err))
	}

	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// ChainHash binds a card's content hash to its predecessor's content hash.
func (b *IntegrityChainBuilder) ChainHash(previousCardHash *string, contentHash string) string {
	previous := chainGenesisHash
	if previousCardHash != nil {
		previous = *previousCardHash
	}

	digest := sha256.Sum256([]byte(previous + ":" + contentHash))
	return hex.EncodeToString(digest[:])
}

// BuildLink fills in the card's integrity fields from the participant's
// existing chain. The previous card is nil for the first card.
func (b *IntegrityChainBuilder) BuildLink(card *models.CourtCard, previous *models.CourtCard, priorCardCount int) {
	card.ContentHash = b.ContentHash(card)

	if previous != nil {
		previousHash := previous.ContentHash
		card.PreviousCardHash = &previousHash
	} else {
		card.PreviousCardHash = nil
	}

	card.ChainHash = b.ChainHash(card.PreviousCardHash, card.ContentHash)
	card.ChainPosition = priorCardCount + 1
}

// VerifyCard recomputes the card's content hash from its own fields and
// compares it to the stored hash. A mismatch means the stored card no longer
// matches the content it was issued for.
func (b *IntegrityChainBuilder) VerifyCard(card *models.CourtCard) (isValid bool) {
	return b.ContentHash(card) == card.ContentHash
}

// VerifyChain checks a participant's full ordered card list: positions must
// be exactly 1..N, the first card's previous-hash must be the genesis
// sentinel, every later card's stored previous-hash must equal the preceding
// card's content hash, and every card's own content hash must verify.
// Tampering with one card surfaces on that card without invalidating the
// stored hashes of the cards after it.
func (b *IntegrityChainBuilder) VerifyChain(cards []*models.CourtCard) (isValid bool, errs []string) {
	for i, card := range cards {
		position := i + 1

		if card.ChainPosition != position {
			errs = append(errs, fmt.Sprintf("card %s: chain position %d, expected %d", card.UID, card.ChainPosition, position))
		}

		if !b.VerifyCard(card) {
			errs = append(errs, fmt.Sprintf("card %s: content hash mismatch", card.UID))
		}

		if i == 0 {
			if card.PreviousCardHash != nil {
				errs = append(errs, fmt.Sprintf("card %s: first card must not reference a previous card", card.UID))
			}
		} else {
			if card.PreviousCardHash == nil {
				errs = append(errs, fmt.Sprintf("card %s: missing previous card hash", card.UID))
			} else if *card.PreviousCardHash != cards[i-1].ContentHash {
				errs = append(errs, fmt.Sprintf("card %s: previous card hash does not match card %s", card.UID, cards[i-1].UID))
			}
		}

		if expected := b.ChainHash(card.PreviousCardHash, card.ContentHash); card.ChainHash != expected {
			errs = append(errs, fmt.Sprintf("card %s: chain hash mismatch", card.UID))
		}
	}

	return len(errs) == 0, errs
}
