// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// NATS subjects that the court card service sends messages about.
const (
	// IndexAttendanceSessionSubject is the subject for the attendance session indexing.
	// The subject is of the form: proofmeet.index.attendance_session
	IndexAttendanceSessionSubject = "proofmeet.index.attendance_session"

	// IndexCourtCardSubject is the subject for the court card indexing.
	// The subject is of the form: proofmeet.index.court_card
	IndexCourtCardSubject = "proofmeet.index.court_card"

	// UpdateAccessCourtCardSubject is the subject for the court card access control updates.
	// The subject is of the form: proofmeet.update_access.court_card
	UpdateAccessCourtCardSubject = "proofmeet.update_access.court_card"

	// DeleteAllAccessCourtCardSubject is the subject for the court card access control deletion.
	// The subject is of the form: proofmeet.delete_all_access.court_card
	DeleteAllAccessCourtCardSubject = "proofmeet.delete_all_access.court_card"
)

// NATS wildcard subjects that the court card service handles messages about.
const (
	// CourtCardAPIQueue is the queue name for the court card API.
	// The subject is of the form: proofmeet.court-card-api.queue
	CourtCardAPIQueue = "proofmeet.court-card-api.queue"
)

// NATS specific subjects that the court card service handles messages about.
const (
	// SessionFinalizeSubject is the subject for requesting session finalization.
	// The subject is of the form: proofmeet.session.finalize
	SessionFinalizeSubject = "proofmeet.session.finalize"

	// MeetingPutSubject is the subject for creating or replacing meeting directory entries.
	// The subject is of the form: proofmeet.meeting.put
	MeetingPutSubject = "proofmeet.meeting.put"

	// Zoom webhook event subjects - mirrors the actual Zoom webhook event names
	ZoomWebhookMeetingParticipantJoinedSubject = "proofmeet.webhook.zoom.meeting.participant_joined"
	ZoomWebhookMeetingParticipantLeftSubject   = "proofmeet.webhook.zoom.meeting.participant_left"
	ZoomWebhookMeetingEndedSubject             = "proofmeet.webhook.zoom.meeting.ended"
)

// MessageAction is a type for the action of a service message.
type MessageAction string

// MessageAction constants for the action of a service message.
const (
	// ActionCreated is the action for a resource creation message.
	ActionCreated MessageAction = "created"
	// ActionUpdated is the action for a resource update message.
	ActionUpdated MessageAction = "updated"
	// ActionDeleted is the action for a resource deletion message.
	ActionDeleted MessageAction = "deleted"
)

// CourtCardIndexerMessage is a NATS message schema for sending messages related
// to session and card CRUD operations so the platform indexer can keep search
// in sync.
type CourtCardIndexerMessage struct {
	Action  MessageAction     `json:"action"`
	Headers map[string]string `json:"headers"`
	Data    any               `json:"data"`
	// Tags is a list of tags to be set on the indexed resource for search.
	Tags []string `json:"tags"`
}

// CourtCardAccessMessage is the schema for the data in the message sent to the fga-sync service.
// These are the fields that the fga-sync service needs in order to update the OpenFGA permissions.
// The participant and their court representative get read access to new cards.
type CourtCardAccessMessage struct {
	UID                string `json:"uid"`
	ParticipantUID     string `json:"participant_uid"`
	CaseID             string `json:"case_id,omitempty"`
	CourtRepUsername   string `json:"court_rep_username,omitempty"`
	ParticipantCanRead bool   `json:"participant_can_read"`
}

// SessionFinalizeMessage is the schema for requesting (re)finalization of a
// session. The reply carries the card or the retriable not-ready error.
type SessionFinalizeMessage struct {
	SessionUID string `json:"session_uid"`
}

// ZoomWebhookEventMessage is the schema for Zoom webhook events sent via NATS for async processing.
// This maintains backward compatibility while new handlers can use the typed payload structs.
type ZoomWebhookEventMessage struct {
	EventType string                 `json:"event_type"`
	EventTS   int64                  `json:"event_ts"`
	Payload   map[string]interface{} `json:"payload"`
}
