// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// ParticipantIdentity is the identity subsystem's view of a participant,
// resolved from a webhook identity (email or platform user ID).
type ParticipantIdentity struct {
	UID       string `json:"uid"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Enrollment carries the case metadata a court card needs: which case the
// participant is enrolled under and who reviews their attendance.
type Enrollment struct {
	ParticipantUID   string `json:"participant_uid"`
	CaseID           string `json:"case_id"`
	CourtRepUsername string `json:"court_rep_username,omitempty"`
	// RequiredMeetingsPerWeek is informational; requirement tracking is owned
	// by the identity subsystem.
	RequiredMeetingsPerWeek int `json:"required_meetings_per_week,omitempty"`
}
