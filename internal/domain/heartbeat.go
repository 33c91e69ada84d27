// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"
)

// HeartbeatAdmission is the outcome of admitting one activity heartbeat.
type HeartbeatAdmission int

const (
	// HeartbeatAccepted means the heartbeat should be appended to the timeline.
	HeartbeatAccepted HeartbeatAdmission = iota
	// HeartbeatDuplicate means the same slot was already recorded for the session.
	HeartbeatDuplicate
	// HeartbeatRateLimited means the session exceeded the per-minute cap.
	HeartbeatRateLimited
)

// HeartbeatLimiter deduplicates and rate-limits activity heartbeats before
// they reach the timeline store. The monitor's nominal cadence is one event
// per 30 seconds; anything well beyond that is noise or abuse.
type HeartbeatLimiter interface {
	Admit(ctx context.Context, sessionUID string, ts time.Time) (HeartbeatAdmission, error)
}
