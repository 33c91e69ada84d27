// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
)

// NatsActivityTimelineRepository is the NATS KV store repository for
// per-session activity timelines. Timelines are stored whole under the
// session UID and rewritten on every heartbeat, so values are msgpack
// encoded rather than JSON to keep the bucket small.
type NatsActivityTimelineRepository struct {
	Timelines INatsKeyValue
}

// NewNatsActivityTimelineRepository creates a new NATS KV store repository for activity timelines.
func NewNatsActivityTimelineRepository(timelines INatsKeyValue) *NatsActivityTimelineRepository {
	return &NatsActivityTimelineRepository{
		Timelines: timelines,
	}
}

func (s *NatsActivityTimelineRepository) GetTimeline(ctx context.Context, sessionUID string) ([]models.ActivityEvent, error) {
	events, _, err := s.GetTimelineWithRevision(ctx, sessionUID)
	return events, err
}

func (s *NatsActivityTimelineRepository) GetTimelineWithRevision(ctx context.Context, sessionUID string) ([]models.ActivityEvent, uint64, error) {
	if s.Timelines == nil {
		return nil, 0, domain.NewUnavailableError("activity timeline repository is not available")
	}

	entry, err := s.Timelines.Get(ctx, sessionUID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			// A session with no heartbeats yet has an empty timeline, not an error.
			return []models.ActivityEvent{}, 0, nil
		}
		slog.ErrorContext(ctx, "error getting activity timeline from NATS KV", logging.ErrKey, err,
			"session_uid", sessionUID)
		return nil, 0, domain.NewInternalError("failed to retrieve activity timeline from store", err)
	}

	var events []models.ActivityEvent
	if err := msgpack.Unmarshal(entry.Value(), &events); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling activity timeline", logging.ErrKey, err,
			"session_uid", sessionUID)
		return nil, 0, domain.NewInternalError("failed to unmarshal activity timeline data", err)
	}

	return events, entry.Revision(), nil
}

func (s *NatsActivityTimelineRepository) PutTimeline(ctx context.Context, sessionUID string, events []models.ActivityEvent, revision uint64) error {
	if s.Timelines == nil {
		return domain.NewUnavailableError("activity timeline repository is not available")
	}

	data, err := msgpack.Marshal(events)
	if err != nil {
		slog.ErrorContext(ctx, "error marshaling activity timeline", logging.ErrKey, err,
			"session_uid", sessionUID)
		return domain.NewInternalError("failed to marshal activity timeline data", err)
	}

	if revision == 0 {
		_, err = s.Timelines.Create(ctx, sessionUID, data)
		if errors.Is(err, jetstream.ErrKeyExists) {
			// A concurrent heartbeat created the timeline first; the caller
			// re-reads and retries the append.
			return domain.NewConflictError("activity timeline has been modified", err)
		}
	} else {
		_, err = s.Timelines.Update(ctx, sessionUID, data, revision)
		if err != nil && strings.Contains(err.Error(), "wrong last sequence") {
			return domain.NewConflictError("activity timeline has been modified", err)
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "error storing activity timeline in NATS KV", logging.ErrKey, err,
			"session_uid", sessionUID, "revision", revision)
		return domain.NewInternalError("failed to store activity timeline in store", err)
	}

	return nil
}

func (s *NatsActivityTimelineRepository) Delete(ctx context.Context, sessionUID string, revision uint64) error {
	if s.Timelines == nil {
		return domain.NewUnavailableError("activity timeline repository is not available")
	}

	err := s.Timelines.Delete(ctx, sessionUID, jetstream.LastRevision(revision))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return domain.NewNotFoundError(fmt.Sprintf("activity timeline for session '%s' not found", sessionUID), err)
		}
		if strings.Contains(err.Error(), "wrong last sequence") {
			return domain.NewConflictError("activity timeline has been modified", err)
		}
		slog.ErrorContext(ctx, "error deleting activity timeline from NATS KV", logging.ErrKey, err,
			"session_uid", sessionUID)
		return domain.NewInternalError("failed to delete activity timeline from store", err)
	}

	return nil
}

// Ensure NatsActivityTimelineRepository implements domain.ActivityTimelineRepository
var _ domain.ActivityTimelineRepository = (*NatsActivityTimelineRepository)(nil)
