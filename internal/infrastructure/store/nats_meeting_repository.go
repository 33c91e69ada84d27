// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// NatsMeetingRepository is the NATS KV store repository for the recovery
// meeting directory.
type NatsMeetingRepository struct {
	*NatsBaseRepository[models.Meeting]
	keyBuilder *KeyBuilder
}

// NewNatsMeetingRepository creates a new NATS KV store repository for meetings.
func NewNatsMeetingRepository(meetings INatsKeyValue) *NatsMeetingRepository {
	return &NatsMeetingRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Meeting](meetings, "meeting"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// platformLookupKey is the encoded lookup key that maps a provider meeting ID
// to the directory entry's UID. Webhook events only carry the provider ID.
func (s *NatsMeetingRepository) platformLookupKey(platform, platformMeetingID string) string {
	value := fmt.Sprintf("%s/%s", strings.ToLower(platform), platformMeetingID)
	return s.keyBuilder.LookupKeyEncoded(KeyPrefixIndexPlatformMeeting, value)
}

func (s *NatsMeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	if meeting.UID == "" {
		meeting.UID = uuid.New().String()
	}

	now := time.Now().UTC()
	meeting.CreatedAt = &now
	meeting.UpdatedAt = &now

	if err := s.Put(ctx, meeting.UID, meeting); err != nil {
		return err
	}

	return s.PutIndex(ctx, s.platformLookupKey(meeting.Platform, meeting.PlatformMeetingID), meeting.UID)
}

func (s *NatsMeetingRepository) Update(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	now := time.Now().UTC()
	meeting.UpdatedAt = &now

	if err := s.NatsBaseRepository.Update(ctx, meeting.UID, meeting, revision); err != nil {
		return err
	}

	return s.PutIndex(ctx, s.platformLookupKey(meeting.Platform, meeting.PlatformMeetingID), meeting.UID)
}

func (s *NatsMeetingRepository) Delete(ctx context.Context, meetingUID string, revision uint64) error {
	meeting, err := s.Get(ctx, meetingUID)
	if err != nil {
		return err
	}

	if err := s.NatsBaseRepository.Delete(ctx, meetingUID, revision); err != nil {
		return err
	}

	// Best effort; a stale lookup entry resolves to a not-found meeting.
	_ = s.DeleteIndex(ctx, s.platformLookupKey(meeting.Platform, meeting.PlatformMeetingID))
	return nil
}

func (s *NatsMeetingRepository) GetByPlatformMeetingID(ctx context.Context, platform, platformMeetingID string) (*models.Meeting, error) {
	meetingUID, err := s.GetIndex(ctx, s.platformLookupKey(platform, platformMeetingID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError(
				fmt.Sprintf("no meeting registered for %s meeting ID '%s'", platform, platformMeetingID), err)
		}
		return nil, err
	}

	return s.Get(ctx, meetingUID)
}

func (s *NatsMeetingRepository) ListAll(ctx context.Context) ([]*models.Meeting, error) {
	keys, err := s.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	meetings := []*models.Meeting{}
	for _, key := range keys {
		// Lookup entries are base64 encoded and carry dots; entity keys are bare UIDs.
		if strings.Contains(key, ".") {
			continue
		}
		meeting, err := s.Get(ctx, key)
		if err != nil {
			continue
		}
		meetings = append(meetings, meeting)
	}

	return meetings, nil
}

// Ensure NatsMeetingRepository implements domain.MeetingRepository
var _ domain.MeetingRepository = (*NatsMeetingRepository)(nil)
