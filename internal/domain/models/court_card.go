// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/akamensky/base58"
	"github.com/google/uuid"
)

// ValidationStatus is a type for the compliance verdict on a court card.
type ValidationStatus string

// ValidationStatus constants.
const (
	// ValidationStatusPending means validation has not run yet.
	ValidationStatusPending ValidationStatus = "PENDING"
	// ValidationStatusPassed means no critical violations were found.
	ValidationStatusPassed ValidationStatus = "PASSED"
	// ValidationStatusFailed means at least one critical violation was found.
	// A failed verdict is a valid pipeline outcome, not an error.
	ValidationStatusFailed ValidationStatus = "FAILED"
)

// EngagementLevel is a type for the categorical engagement rating.
type EngagementLevel string

// EngagementLevel constants.
const (
	EngagementLevelHigh       EngagementLevel = "HIGH"
	EngagementLevelMedium     EngagementLevel = "MEDIUM"
	EngagementLevelLow        EngagementLevel = "LOW"
	EngagementLevelSuspicious EngagementLevel = "SUSPICIOUS"
)

// Recommendation is a type for the reviewer guidance derived from engagement.
type Recommendation string

// Recommendation constants.
const (
	RecommendationApprove       Recommendation = "APPROVE"
	RecommendationFlagForReview Recommendation = "FLAG_FOR_REVIEW"
	RecommendationReject        Recommendation = "REJECT"
)

// ViolationType is a type for the kind of compliance violation.
type ViolationType string

// ViolationType constants.
const (
	ViolationInsufficientAttendance  ViolationType = "INSUFFICIENT_ATTENDANCE"
	ViolationExcessiveIdleTime       ViolationType = "EXCESSIVE_IDLE_TIME"
	ViolationMissingVerificationData ViolationType = "MISSING_VERIFICATION_DATA"
	ViolationLowAttendanceWarning    ViolationType = "LOW_ATTENDANCE_WARNING"
)

// ViolationSeverity is a type for how serious a violation is.
type ViolationSeverity string

// ViolationSeverity constants.
const (
	SeverityCritical ViolationSeverity = "CRITICAL"
	SeverityWarning  ViolationSeverity = "WARNING"
	SeverityInfo     ViolationSeverity = "INFO"
)

// Engagement flag values surfaced by the analyzer.
const (
	FlagAnalysisError      = "ANALYSIS_ERROR"
	FlagNoActivity         = "NO_ACTIVITY"
	FlagLowFocus           = "LOW_FOCUS"
	FlagExcessiveEventRate = "EXCESSIVE_EVENT_RATE"
	FlagIdleHeavy          = "IDLE_HEAVY"
	FlagNoAudioVideo       = "NO_AUDIO_VIDEO"
)

// DurationBreakdown is the attended-time accounting for a session.
// ActiveDurationMin + IdleDurationMin always equals TotalDurationMin.
type DurationBreakdown struct {
	TotalDurationMin  int     `json:"total_duration_min"`
	ActiveDurationMin int     `json:"active_duration_min"`
	IdleDurationMin   int     `json:"idle_duration_min"`
	AttendancePercent float64 `json:"attendance_percent"`
}

// EngagementAnalysis is the behavioral quality assessment of a session.
type EngagementAnalysis struct {
	Score          int             `json:"score"`
	Level          EngagementLevel `json:"level"`
	Flags          []string        `json:"flags,omitempty"`
	Recommendation Recommendation  `json:"recommendation"`
}

// Violation is a single compliance rule failure attached to a card.
type Violation struct {
	Type     ViolationType     `json:"type"`
	Severity ViolationSeverity `json:"severity"`
	Message  string            `json:"message"`
}

// CourtCard is the court-ready attendance proof for one completed session.
// Cards are write-once: after creation only IsTampered may change, and only
// from false to true when verification detects a hash mismatch.
type CourtCard struct {
	UID            string `json:"uid"`
	CardNumber     string `json:"card_number"`
	SessionUID     string `json:"session_uid"`
	ParticipantUID string `json:"participant_uid"`
	CaseID         string `json:"case_id,omitempty"`
	MeetingUID     string `json:"meeting_uid"`
	MeetingName    string `json:"meeting_name"`
	MeetingDate    string `json:"meeting_date"`

	JoinTime  time.Time `json:"join_time"`
	LeaveTime time.Time `json:"leave_time"`

	Breakdown        DurationBreakdown  `json:"breakdown"`
	Engagement       EngagementAnalysis `json:"engagement"`
	ValidationStatus ValidationStatus   `json:"validation_status"`
	Violations       []Violation        `json:"violations,omitempty"`

	// ContentHash is the SHA-256 digest of the card's canonical content.
	ContentHash string `json:"content_hash"`
	// PreviousCardHash is the ContentHash of the participant's previous card,
	// nil for the first card in the chain.
	PreviousCardHash *string `json:"previous_card_hash,omitempty"`
	// ChainHash binds this card to its predecessor.
	ChainHash string `json:"chain_hash"`
	// ChainPosition is the 1-based position in the participant's card chain.
	ChainPosition int  `json:"chain_position"`
	IsTampered    bool `json:"is_tampered"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// HasCriticalViolation reports whether any attached violation is critical.
func (c *CourtCard) HasCriticalViolation() bool {
	if c == nil {
		return false
	}
	for _, v := range c.Violations {
		if v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Tags generates a consistent set of tags for the court card.
// IMPORTANT: If you modify this method, please update the Tags documentation in the README.md
// to ensure consumers understand how to use these tags for searching.
func (c *CourtCard) Tags() []string {
	tags := []string{}

	if c == nil {
		return nil
	}

	if c.UID != "" {
		// without prefix
		tags = append(tags, c.UID)
		// with prefix
		tag := fmt.Sprintf("court_card_uid:%s", c.UID)
		tags = append(tags, tag)
	}

	if c.CardNumber != "" {
		tag := fmt.Sprintf("card_number:%s", c.CardNumber)
		tags = append(tags, tag)
	}

	if c.SessionUID != "" {
		tag := fmt.Sprintf("attendance_session_uid:%s", c.SessionUID)
		tags = append(tags, tag)
	}

	if c.ParticipantUID != "" {
		tag := fmt.Sprintf("participant_uid:%s", c.ParticipantUID)
		tags = append(tags, tag)
	}

	if c.CaseID != "" {
		tag := fmt.Sprintf("case_id:%s", c.CaseID)
		tags = append(tags, tag)
	}

	if c.MeetingUID != "" {
		tag := fmt.Sprintf("meeting_uid:%s", c.MeetingUID)
		tags = append(tags, tag)
	}

	if c.ValidationStatus != "" {
		tag := fmt.Sprintf("validation_status:%s", strings.ToLower(string(c.ValidationStatus)))
		tags = append(tags, tag)
	}

	return tags
}

// NewCardNumber builds a human-readable card number for the given meeting
// date. The base58 suffix comes from a fresh UUID, so numbers are
// collision-free without coordination.
func NewCardNumber(meetingDate time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("CC-%s-%s", meetingDate.Format("20060102"), base58.Encode(u[:8]))
}
