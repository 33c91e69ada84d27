// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for FinalizationsTotal.
const (
	FinalizationOutcomeFinalized     = "finalized"
	FinalizationOutcomeIdempotentHit = "idempotent_hit"
	FinalizationOutcomeNotReady      = "not_ready"
	FinalizationOutcomeError         = "error"
)

// Label values for HeartbeatsTotal.
const (
	HeartbeatResultAccepted    = "accepted"
	HeartbeatResultDuplicate   = "duplicate"
	HeartbeatResultRateLimited = "rate_limited"
	HeartbeatResultRejected    = "rejected"
)

// Label values for ChainVerificationsTotal.
const (
	ChainVerificationResultValid   = "valid"
	ChainVerificationResultInvalid = "invalid"
	ChainVerificationResultError   = "error"
)

var (
	// ActivityEventsDroppedTotal counts raw events discarded during timeline
	// normalization, by reason (e.g. unknown kind).
	ActivityEventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcard_activity_events_dropped_total",
		Help: "Raw activity events dropped during timeline normalization.",
	}, []string{"reason"})

	// FinalizationsTotal counts finalize() calls by outcome.
	FinalizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcard_finalizations_total",
		Help: "Session finalization attempts by outcome.",
	}, []string{"outcome"})

	// ValidationVerdictsTotal counts computed compliance verdicts.
	ValidationVerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcard_validation_verdicts_total",
		Help: "Compliance validation verdicts computed during finalization.",
	}, []string{"verdict"})

	// ViolationsTotal counts individual violations by type.
	ViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcard_violations_total",
		Help: "Compliance violations recorded during validation.",
	}, []string{"type"})

	// ChainVerificationsTotal counts card and chain verification runs.
	ChainVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcard_chain_verifications_total",
		Help: "Integrity verification runs by result.",
	}, []string{"result"})

	// TamperedCardsTotal counts cards newly flagged as tampered.
	TamperedCardsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courtcard_tampered_cards_total",
		Help: "Cards flagged as tampered by a verification pass.",
	})

	// HeartbeatsTotal counts activity heartbeat submissions by result.
	HeartbeatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courtcard_heartbeats_total",
		Help: "Activity heartbeat submissions by result.",
	}, []string{"result"})
)
