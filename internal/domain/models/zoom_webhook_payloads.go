// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ZoomParticipantJoinedPayload represents the payload for meeting.participant_joined webhook events
type ZoomParticipantJoinedPayload struct {
	Object struct {
		UUID        string    `json:"uuid"`
		ID          string    `json:"id"` // Zoom sends as string for participant events
		HostID      string    `json:"host_id"`
		Topic       string    `json:"topic"`
		Type        int       `json:"type"`
		StartTime   time.Time `json:"start_time"`
		Timezone    string    `json:"timezone"`
		Participant struct {
			UserID            string    `json:"user_id"`
			UserName          string    `json:"user_name"`
			ID                string    `json:"id"`
			JoinTime          time.Time `json:"join_time"`
			Email             string    `json:"email"`
			ParticipantUserID string    `json:"participant_user_id"`
		} `json:"participant"`
	} `json:"object"`
}

// ZoomParticipantLeftPayload represents the payload for meeting.participant_left webhook events
type ZoomParticipantLeftPayload struct {
	Object struct {
		UUID        string    `json:"uuid"`
		ID          string    `json:"id"` // Zoom sends as string for participant events
		HostID      string    `json:"host_id"`
		Topic       string    `json:"topic"`
		Type        int       `json:"type"`
		StartTime   time.Time `json:"start_time"`
		Timezone    string    `json:"timezone"`
		Participant struct {
			UserID            string    `json:"user_id"`
			UserName          string    `json:"user_name"`
			ID                string    `json:"id"`
			LeaveTime         time.Time `json:"leave_time"`
			Duration          int       `json:"duration"` // attended seconds reported by Zoom
			Email             string    `json:"email"`
			ParticipantUserID string    `json:"participant_user_id"`
		} `json:"participant"`
	} `json:"object"`
}

// ZoomMeetingEndedPayload represents the payload for meeting.ended webhook events
type ZoomMeetingEndedPayload struct {
	Object struct {
		UUID      string    `json:"uuid"`
		ID        string    `json:"id"` // Zoom sends as string in webhook events
		HostID    string    `json:"host_id"`
		Topic     string    `json:"topic"`
		Type      int       `json:"type"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Duration  int       `json:"duration"`
		Timezone  string    `json:"timezone"`
	} `json:"object"`
}

// Helper methods to convert from ZoomWebhookEventMessage to typed payloads

// ToParticipantJoinedPayload converts the webhook event to a typed participant joined payload
func (z *ZoomWebhookEventMessage) ToParticipantJoinedPayload() (*ZoomParticipantJoinedPayload, error) {
	if z.EventType != "meeting.participant_joined" {
		return nil, fmt.Errorf("invalid event type: expected meeting.participant_joined, got %s", z.EventType)
	}

	data, err := json.Marshal(z.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var payload ZoomParticipantJoinedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to participant joined payload: %w", err)
	}

	return &payload, nil
}

// ToParticipantLeftPayload converts the webhook event to a typed participant left payload
func (z *ZoomWebhookEventMessage) ToParticipantLeftPayload() (*ZoomParticipantLeftPayload, error) {
	if z.EventType != "meeting.participant_left" {
		return nil, fmt.Errorf("invalid event type: expected meeting.participant_left, got %s", z.EventType)
	}

	data, err := json.Marshal(z.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var payload ZoomParticipantLeftPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to participant left payload: %w", err)
	}

	return &payload, nil
}

// ToMeetingEndedPayload converts the webhook event to a typed meeting ended payload
func (z *ZoomWebhookEventMessage) ToMeetingEndedPayload() (*ZoomMeetingEndedPayload, error) {
	if z.EventType != "meeting.ended" {
		return nil, fmt.Errorf("invalid event type: expected meeting.ended, got %s", z.EventType)
	}

	data, err := json.Marshal(z.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var payload ZoomMeetingEndedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to meeting ended payload: %w", err)
	}

	return &payload, nil
}
