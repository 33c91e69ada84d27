// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// EventKind is a type for the kind of an activity event.
type EventKind string

// EventKind constants for the kinds of activity events the monitor reports.
const (
	// EventKindActive indicates the participant interacted with the meeting client.
	EventKindActive EventKind = "ACTIVE"
	// EventKindIdle indicates no interaction was detected during the sample window.
	EventKindIdle EventKind = "IDLE"
	// EventKindLeave indicates the participant left the meeting.
	EventKindLeave EventKind = "LEAVE"
	// EventKindRejoin indicates the participant rejoined after leaving.
	EventKindRejoin EventKind = "REJOIN"
	// EventKindVideoOn indicates the participant turned their camera on.
	EventKindVideoOn EventKind = "VIDEO_ON"
	// EventKindVideoOff indicates the participant turned their camera off.
	EventKindVideoOff EventKind = "VIDEO_OFF"
	// EventKindReaction indicates the participant used an in-meeting reaction.
	EventKindReaction EventKind = "REACTION"
)

// knownEventKinds is the set of kinds the analysis pipeline understands.
// Anything else is dropped during normalization, not rejected at ingestion.
var knownEventKinds = map[EventKind]struct{}{
	EventKindActive:   {},
	EventKindIdle:     {},
	EventKindLeave:    {},
	EventKindRejoin:   {},
	EventKindVideoOn:  {},
	EventKindVideoOff: {},
	EventKindReaction: {},
}

// IsKnown reports whether the kind is one the analysis pipeline understands.
func (k EventKind) IsKnown() bool {
	_, ok := knownEventKinds[k]
	return ok
}

// ActivityEvent is a single timestamped observation from the activity monitor.
// Events are immutable once recorded and ordered by timestamp; events with
// equal timestamps keep their insertion order.
type ActivityEvent struct {
	Timestamp time.Time         `json:"timestamp"                msgpack:"ts"`
	Kind      EventKind         `json:"kind"                     msgpack:"k"`
	Source    string            `json:"source,omitempty"         msgpack:"src,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"       msgpack:"md,omitempty"`
}

// HasTag reports whether the event metadata contains the given tag key.
func (e *ActivityEvent) HasTag(key string) bool {
	if e == nil || e.Metadata == nil {
		return false
	}
	_, ok := e.Metadata[key]
	return ok
}

// Metadata tag keys recognized by the engagement analyzer.
const (
	// TagFocus marks a sample taken while the meeting window had focus.
	TagFocus = "focus"
	// TagAudio marks a sample with an active microphone signal.
	TagAudio = "audio"
	// TagVerification marks a sample carrying an identity verification signal.
	TagVerification = "verification"
)

// SubmitActivityRequest is the payload for recording a monitor heartbeat
// against an in-progress attendance session.
type SubmitActivityRequest struct {
	Kind      string            `json:"kind"               validate:"required"`
	Timestamp time.Time         `json:"timestamp"          validate:"required"`
	Source    string            `json:"source,omitempty"   validate:"omitempty,max=64"`
	Metadata  map[string]string `json:"metadata,omitempty" validate:"omitempty,max=16,dive,keys,max=32,endkeys,max=256"`
}

// ToActivityEvent converts the request into a timeline event.
func (r *SubmitActivityRequest) ToActivityEvent() ActivityEvent {
	return ActivityEvent{
		Timestamp: r.Timestamp.UTC(),
		Kind:      EventKind(r.Kind),
		Source:    r.Source,
		Metadata:  r.Metadata,
	}
}
