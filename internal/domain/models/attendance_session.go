// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"strings"
	"time"
)

// SessionStatus is a type for the lifecycle state of an attendance session.
type SessionStatus string

// SessionStatus constants.
const (
	// SessionStatusInProgress means the participant has joined and not yet left.
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	// SessionStatusCompleted means the provider has reported the participant leaving.
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// AttendanceSession represents one participant's attendance of one meeting
// occurrence. JoinTime and LeaveTime come only from the meeting provider's
// webhooks; client-side heartbeats never set them.
type AttendanceSession struct {
	UID              string `json:"uid"`
	MeetingUID       string `json:"meeting_uid"`
	OccurrenceID     string `json:"occurrence_id,omitempty"`
	ParticipantUID   string `json:"participant_uid"`
	ParticipantEmail string `json:"participant_email,omitempty"`
	ParticipantName  string `json:"participant_name,omitempty"`
	CaseID           string `json:"case_id,omitempty"`
	// PlatformSessionUID identifies the provider-side session (meeting instance
	// UUID plus participant user ID) so replayed webhooks dedupe to one session.
	PlatformSessionUID string `json:"platform_session_uid,omitempty"`

	JoinTime  time.Time  `json:"join_time"`
	LeaveTime *time.Time `json:"leave_time,omitempty"`
	// JoinTimeReconstructed is set when the join webhook never arrived and the
	// join time was back-calculated from the provider's reported duration. A
	// reconstructed session has no provider-verified timestamps.
	JoinTimeReconstructed bool `json:"join_time_reconstructed,omitempty"`
	// ScheduledDurationMinutes is the meeting's scheduled length, the
	// denominator for attendance percentage.
	ScheduledDurationMinutes int           `json:"scheduled_duration_minutes"`
	Status                   SessionStatus `json:"status"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// IsCompleted reports whether the provider has reported the participant leaving.
func (s *AttendanceSession) IsCompleted() bool {
	if s == nil {
		return false
	}
	return s.Status == SessionStatusCompleted && s.LeaveTime != nil
}

// SessionEnd returns the authoritative end of the session: the leave time when
// known, otherwise the scheduled end of the meeting occurrence.
func (s *AttendanceSession) SessionEnd() time.Time {
	if s.LeaveTime != nil {
		return *s.LeaveTime
	}
	return s.JoinTime.Add(time.Duration(s.ScheduledDurationMinutes) * time.Minute)
}

// Tags generates a consistent set of tags for the attendance session.
// IMPORTANT: If you modify this method, please update the Tags documentation in the README.md
// to ensure consumers understand how to use these tags for searching.
func (s *AttendanceSession) Tags() []string {
	tags := []string{}

	if s == nil {
		return nil
	}

	if s.UID != "" {
		// without prefix
		tags = append(tags, s.UID)
		// with prefix
		tag := fmt.Sprintf("attendance_session_uid:%s", s.UID)
		tags = append(tags, tag)
	}

	if s.MeetingUID != "" {
		tag := fmt.Sprintf("meeting_uid:%s", s.MeetingUID)
		tags = append(tags, tag)
	}

	if s.ParticipantUID != "" {
		tag := fmt.Sprintf("participant_uid:%s", s.ParticipantUID)
		tags = append(tags, tag)
	}

	if s.CaseID != "" {
		tag := fmt.Sprintf("case_id:%s", s.CaseID)
		tags = append(tags, tag)
	}

	if s.Status != "" {
		tag := fmt.Sprintf("status:%s", strings.ToLower(string(s.Status)))
		tags = append(tags, tag)
	}

	return tags
}
