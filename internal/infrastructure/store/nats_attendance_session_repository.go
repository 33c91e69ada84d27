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

// NatsAttendanceSessionRepository is the NATS KV store repository for
// attendance sessions.
type NatsAttendanceSessionRepository struct {
	*NatsBaseRepository[models.AttendanceSession]
	keyBuilder *KeyBuilder
}

// NewNatsAttendanceSessionRepository creates a new NATS KV store repository for attendance sessions.
func NewNatsAttendanceSessionRepository(sessions INatsKeyValue) *NatsAttendanceSessionRepository {
	return &NatsAttendanceSessionRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.AttendanceSession](sessions, "attendance session"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// platformLookupKey maps the provider-side session identity to the session
// UID so replayed webhooks dedupe to one session.
func (s *NatsAttendanceSessionRepository) platformLookupKey(platformSessionUID string) string {
	return s.keyBuilder.LookupKeyEncoded(KeyPrefixIndexPlatformSession, platformSessionUID)
}

func (s *NatsAttendanceSessionRepository) Create(ctx context.Context, session *models.AttendanceSession) error {
	if session.UID == "" {
		session.UID = uuid.New().String()
	}

	now := time.Now().UTC()
	session.CreatedAt = &now
	session.UpdatedAt = &now

	if err := s.Put(ctx, session.UID, session); err != nil {
		return err
	}

	if session.PlatformSessionUID != "" {
		return s.PutIndex(ctx, s.platformLookupKey(session.PlatformSessionUID), session.UID)
	}
	return nil
}

func (s *NatsAttendanceSessionRepository) Update(ctx context.Context, session *models.AttendanceSession, revision uint64) error {
	now := time.Now().UTC()
	session.UpdatedAt = &now

	return s.NatsBaseRepository.Update(ctx, session.UID, session, revision)
}

func (s *NatsAttendanceSessionRepository) GetByPlatformSessionUID(ctx context.Context, platformSessionUID string) (*models.AttendanceSession, error) {
	sessionUID, err := s.GetIndex(ctx, s.platformLookupKey(platformSessionUID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError(
				fmt.Sprintf("no attendance session for platform session '%s'", platformSessionUID), err)
		}
		return nil, err
	}

	return s.Get(ctx, sessionUID)
}

// ListByParticipant returns the participant's sessions ordered by join time.
func (s *NatsAttendanceSessionRepository) ListByParticipant(ctx context.Context, participantUID string) ([]*models.AttendanceSession, error) {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	sessions := []*models.AttendanceSession{}
	for _, key := range keys {
		if strings.Contains(key, ".") {
			continue
		}
		session, err := s.Get(ctx, key)
		if err != nil {
			continue
		}
		if session.ParticipantUID == participantUID {
			sessions = append(sessions, session)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].JoinTime.Before(sessions[j].JoinTime)
	})

	return sessions, nil
}

// Ensure NatsAttendanceSessionRepository implements domain.AttendanceSessionRepository
var _ domain.AttendanceSessionRepository = (*NatsAttendanceSessionRepository)(nil)
