// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"

	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/metrics"
)

// Compliance thresholds. Attendance below the critical threshold fails the
// session; attendance in [warning, passing) only annotates it.
const (
	attendanceCriticalPercent = 80.0
	attendancePassingPercent  = 90.0

	idleFractionWarningAt = 0.3

	// engagementOverrideScore is the independently-measured engagement score at
	// which idle-time suspicion is suppressed. Raw idle-time measurement is
	// noisy; high engagement is stronger evidence of genuine presence.
	engagementOverrideScore = 90
)

// ValidationInput is everything the compliance rules consider.
type ValidationInput struct {
	Breakdown  models.DurationBreakdown
	Engagement models.EngagementAnalysis
	// HasProviderTimestamps is true when the join/leave times came from the
	// meeting provider's webhooks.
	HasProviderTimestamps bool
	// HasActivityData is true when at least one monitor event was recorded.
	HasActivityData bool
}

// ComplianceValidator applies the threshold rules that decide whether a
// session counts for legal compliance. It is stateless and safe for
// concurrent use.
type ComplianceValidator struct{}

// NewComplianceValidator creates a new ComplianceValidator.
func NewComplianceValidator() *ComplianceValidator {
	return &ComplianceValidator{}
}

// Validate evaluates each rule independently and derives the verdict from the
// violation set: PASSED iff no CRITICAL violation is present. A session with
// only WARNING/INFO violations passes; this asymmetry is the core business
// policy and must hold exactly.
func (v *ComplianceValidator) Validate(input ValidationInput) (models.ValidationStatus, []models.Violation) {
	var violations []models.Violation

	if input.Breakdown.AttendancePercent < attendanceCriticalPercent {
		violations = append(violations, models.Violation{
			Type:     models.ViolationInsufficientAttendance,
			Severity: models.SeverityCritical,
			Message: fmt.Sprintf("attended %.1f%% of the scheduled meeting, below the required %.0f%%",
				input.Breakdown.AttendancePercent, attendanceCriticalPercent),
		})
	}

	if v.excessiveIdle(input) {
		violations = append(violations, models.Violation{
			Type:     models.ViolationExcessiveIdleTime,
			Severity: models.SeverityWarning,
			Message: fmt.Sprintf("idle for %d of %d attended minutes",
				input.Breakdown.IdleDurationMin, input.Breakdown.TotalDurationMin),
		})
	}

	if !input.HasProviderTimestamps && !input.HasActivityData {
		violations = append(violations, models.Violation{
			Type:     models.ViolationMissingVerificationData,
			Severity: models.SeverityWarning,
			Message:  "no provider timestamps or activity monitoring data to verify attendance",
		})
	}

	if input.Breakdown.AttendancePercent >= attendanceCriticalPercent &&
		input.Breakdown.AttendancePercent < attendancePassingPercent {
		violations = append(violations, models.Violation{
			Type:     models.ViolationLowAttendanceWarning,
			Severity: models.SeverityInfo,
			Message: fmt.Sprintf("attended %.1f%% of the scheduled meeting, below the recommended %.0f%%",
				input.Breakdown.AttendancePercent, attendancePassingPercent),
		})
	}

	status := models.ValidationStatusPassed
	for _, violation := range violations {
		metrics.ViolationsTotal.WithLabelValues(string(violation.Type)).Inc()
		if violation.Severity == models.SeverityCritical {
			status = models.ValidationStatusFailed
		}
	}
	metrics.ValidationVerdictsTotal.WithLabelValues(strings.ToLower(string(status))).Inc()

	return status, violations
}

// excessiveIdle reports whether idle time exceeds the warning fraction of
// attended time, unless high engagement suppresses the rule entirely.
func (v *ComplianceValidator) excessiveIdle(input ValidationInput) bool {
	if input.Breakdown.TotalDurationMin <= 0 {
		return false
	}
	if input.Engagement.Score >= engagementOverrideScore {
		return false
	}
	return float64(input.Breakdown.IdleDurationMin) > idleFractionWarningAt*float64(input.Breakdown.TotalDurationMin)
}
