// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// Meeting is the key-value store representation of a recovery meeting that
// the service tracks attendance for.
type Meeting struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	Program string `json:"program,omitempty"`
	// Platform is the meeting provider, e.g. "Zoom".
	Platform string `json:"platform"`
	// PlatformMeetingID is the provider's meeting identifier, used to match
	// webhook events to directory entries.
	PlatformMeetingID string    `json:"platform_meeting_id"`
	StartTime         time.Time `json:"start_time"`
	DurationMinutes   int       `json:"duration_minutes"`
	Timezone          string    `json:"timezone,omitempty"`
	// Recurrence is an RFC 5545 RRULE string, empty for one-off meetings.
	Recurrence string `json:"recurrence,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// IsRecurring reports whether the meeting repeats on a schedule.
func (m *Meeting) IsRecurring() bool {
	if m == nil {
		return false
	}
	return m.Recurrence != ""
}

// Occurrence is one scheduled instance of a meeting.
type Occurrence struct {
	OccurrenceID    string    `json:"occurrence_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

// PutMeetingRequest is the payload for creating or replacing a meeting
// directory entry.
type PutMeetingRequest struct {
	UID               string    `json:"uid"                validate:"omitempty,uuid"`
	Name              string    `json:"name"               validate:"required,max=256"`
	Program           string    `json:"program,omitempty"  validate:"omitempty,max=64"`
	Platform          string    `json:"platform"           validate:"required,max=32"`
	PlatformMeetingID string    `json:"platform_meeting_id" validate:"required,max=64"`
	StartTime         time.Time `json:"start_time"         validate:"required"`
	DurationMinutes   int       `json:"duration_minutes"   validate:"required,min=1,max=600"`
	Timezone          string    `json:"timezone,omitempty" validate:"omitempty,max=64"`
	Recurrence        string    `json:"recurrence,omitempty" validate:"omitempty,max=512"`
}

// ToMeeting converts the request into a directory entry.
func (r *PutMeetingRequest) ToMeeting() *Meeting {
	return &Meeting{
		UID:               r.UID,
		Name:              r.Name,
		Program:           r.Program,
		Platform:          r.Platform,
		PlatformMeetingID: r.PlatformMeetingID,
		StartTime:         r.StartTime,
		DurationMinutes:   r.DurationMinutes,
		Timezone:          r.Timezone,
		Recurrence:        r.Recurrence,
	}
}
