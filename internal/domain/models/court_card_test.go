// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCourtCard_Tags(t *testing.T) {
	tests := []struct {
		name     string
		card     *CourtCard
		expected []string
	}{
		{
			name:     "nil card returns nil",
			card:     nil,
			expected: nil,
		},
		{
			name:     "empty card returns empty slice",
			card:     &CourtCard{},
			expected: []string{},
		},
		{
			name: "card with UID only",
			card: &CourtCard{
				UID: "card-123",
			},
			expected: []string{
				"card-123",
				"court_card_uid:card-123",
			},
		},
		{
			name: "card with all fields populated",
			card: &CourtCard{
				UID:              "card-123",
				CardNumber:       "CC-20260115-8fK2mQx",
				SessionUID:       "session-456",
				ParticipantUID:   "participant-789",
				CaseID:           "case-101",
				MeetingUID:       "meeting-202",
				ValidationStatus: ValidationStatusPassed,
			},
			expected: []string{
				"card-123",
				"court_card_uid:card-123",
				"card_number:CC-20260115-8fK2mQx",
				"attendance_session_uid:session-456",
				"participant_uid:participant-789",
				"case_id:case-101",
				"meeting_uid:meeting-202",
				"validation_status:passed",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.card.Tags()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCourtCard_HasCriticalViolation(t *testing.T) {
	tests := []struct {
		name     string
		card     *CourtCard
		expected bool
	}{
		{
			name:     "nil card",
			card:     nil,
			expected: false,
		},
		{
			name:     "no violations",
			card:     &CourtCard{},
			expected: false,
		},
		{
			name: "only warnings and info",
			card: &CourtCard{
				Violations: []Violation{
					{Type: ViolationExcessiveIdleTime, Severity: SeverityWarning},
					{Type: ViolationLowAttendanceWarning, Severity: SeverityInfo},
				},
			},
			expected: false,
		},
		{
			name: "critical violation present",
			card: &CourtCard{
				Violations: []Violation{
					{Type: ViolationExcessiveIdleTime, Severity: SeverityWarning},
					{Type: ViolationInsufficientAttendance, Severity: SeverityCritical},
				},
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.card.HasCriticalViolation())
		})
	}
}

func TestNewCardNumber(t *testing.T) {
	date := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)

	number := NewCardNumber(date)

	assert.True(t, strings.HasPrefix(number, "CC-20260115-"), "unexpected prefix: %s", number)

	suffix := strings.TrimPrefix(number, "CC-20260115-")
	assert.NotEmpty(t, suffix)

	// Numbers must be unique across calls.
	other := NewCardNumber(date)
	assert.NotEqual(t, number, other)
}

func TestValidationStatusConstants(t *testing.T) {
	tests := []struct {
		name     string
		status   ValidationStatus
		expected string
	}{
		{name: "pending", status: ValidationStatusPending, expected: "PENDING"},
		{name: "passed", status: ValidationStatusPassed, expected: "PASSED"},
		{name: "failed", status: ValidationStatusFailed, expected: "FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.status) != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, string(tt.status))
			}
		})
	}
}

func TestRecommendationConstants(t *testing.T) {
	tests := []struct {
		name           string
		recommendation Recommendation
		expected       string
	}{
		{name: "approve", recommendation: RecommendationApprove, expected: "APPROVE"},
		{name: "flag for review", recommendation: RecommendationFlagForReview, expected: "FLAG_FOR_REVIEW"},
		{name: "reject", recommendation: RecommendationReject, expected: "REJECT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.recommendation) != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, string(tt.recommendation))
			}
		})
	}
}
