// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package cache holds Redis-backed helpers for request admission.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/pkg/constants"
)

const (
	// dedupSlot is the granularity of duplicate suppression. One slot per
	// nominal heartbeat interval.
	dedupSlot = constants.HeartbeatIntervalSeconds * time.Second

	// rateWindow and rateCap bound heartbeats per session. The cap sits well
	// above the nominal 2/min cadence so clock skew and retries never trip it.
	rateWindow = time.Minute
	rateCap    = 10

	dedupTTL = 2 * time.Minute
)

// RedisHeartbeatLimiter implements domain.HeartbeatLimiter on Redis.
type RedisHeartbeatLimiter struct {
	client *redis.Client
}

var _ domain.HeartbeatLimiter = (*RedisHeartbeatLimiter)(nil)

// NewRedisHeartbeatLimiter creates a limiter on an existing Redis client.
func NewRedisHeartbeatLimiter(client *redis.Client) *RedisHeartbeatLimiter {
	return &RedisHeartbeatLimiter{client: client}
}

// Admit suppresses duplicate heartbeats per session and slot, then counts the
// heartbeat against the session's per-minute window.
func (l *RedisHeartbeatLimiter) Admit(ctx context.Context, sessionUID string, ts time.Time) (domain.HeartbeatAdmission, error) {
	if l.client == nil {
		return domain.HeartbeatAccepted, domain.NewUnavailableError("redis client not available")
	}

	slot := ts.Unix() / int64(dedupSlot.Seconds())
	dedupKey := fmt.Sprintf("hb:dedup:%s:%d", sessionUID, slot)

	set, err := l.client.SetNX(ctx, dedupKey, 1, dedupTTL).Result()
	if err != nil {
		return domain.HeartbeatAccepted, domain.NewUnavailableError("heartbeat dedup check failed", err)
	}
	if !set {
		return domain.HeartbeatDuplicate, nil
	}

	window := ts.Unix() / int64(rateWindow.Seconds())
	rateKey := fmt.Sprintf("hb:rate:%s:%d", sessionUID, window)

	count, err := l.client.Incr(ctx, rateKey).Result()
	if err != nil {
		return domain.HeartbeatAccepted, domain.NewUnavailableError("heartbeat rate check failed", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, rateKey, rateWindow).Err(); err != nil {
			slog.WarnContext(ctx, "failed to set heartbeat rate window TTL", logging.ErrKey, err)
		}
	}
	if count > rateCap {
		return domain.HeartbeatRateLimited, nil
	}

	return domain.HeartbeatAccepted, nil
}

// NoopHeartbeatLimiter admits everything. Used when Redis is not configured
// and in tests.
type NoopHeartbeatLimiter struct{}

var _ domain.HeartbeatLimiter = (*NoopHeartbeatLimiter)(nil)

// NewNoopHeartbeatLimiter creates an admit-all limiter.
func NewNoopHeartbeatLimiter() *NoopHeartbeatLimiter {
	return &NoopHeartbeatLimiter{}
}

// Admit always accepts.
func (l *NoopHeartbeatLimiter) Admit(_ context.Context, _ string, _ time.Time) (domain.HeartbeatAdmission, error) {
	return domain.HeartbeatAccepted, nil
}
