// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package identity

import (
	"context"
	"log/slog"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// NoopClient backs local development and tests where no identity service is
// available. It echoes the webhook identity back as an unenrolled participant.
type NoopClient struct{}

var _ domain.IdentityClient = (*NoopClient)(nil)

// NewNoopClient creates a no-op identity client.
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// ResolveParticipant returns a synthetic participant keyed by whichever
// identifier was supplied.
func (c *NoopClient) ResolveParticipant(ctx context.Context, email, platformUserID string) (*models.ParticipantIdentity, error) {
	if email == "" && platformUserID == "" {
		return nil, domain.NewValidationError("either email or platform user ID is required")
	}

	uid := platformUserID
	if uid == "" {
		uid = email
	}

	slog.DebugContext(ctx, "noop identity client resolving participant", "uid", uid)

	return &models.ParticipantIdentity{
		UID:   uid,
		Email: email,
	}, nil
}

// GetEnrollment returns an empty enrollment for the participant.
func (c *NoopClient) GetEnrollment(ctx context.Context, participantUID string) (*models.Enrollment, error) {
	if participantUID == "" {
		return nil, domain.NewValidationError("participant UID is required")
	}

	return &models.Enrollment{
		ParticipantUID: participantUID,
	}, nil
}
