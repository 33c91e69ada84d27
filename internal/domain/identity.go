// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// IdentityClient defines the interface for the ProofMeet identity and
// registration subsystem, which owns participant and case metadata.
type IdentityClient interface {
	// ResolveParticipant maps a webhook identity to a registered participant.
	// Either email or platformUserID may be empty; at least one must be set.
	ResolveParticipant(ctx context.Context, email, platformUserID string) (*models.ParticipantIdentity, error)

	// GetEnrollment fetches the participant's active case enrollment.
	GetEnrollment(ctx context.Context, participantUID string) (*models.Enrollment, error)
}
