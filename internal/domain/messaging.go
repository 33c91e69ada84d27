// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/proofmeet/court-card-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// AttendanceSessionIndexSender handles indexing operations for attendance sessions.
type AttendanceSessionIndexSender interface {
	SendIndexAttendanceSession(ctx context.Context, action models.MessageAction, data models.AttendanceSession) error
	SendDeleteIndexAttendanceSession(ctx context.Context, data string) error
}

// CourtCardIndexSender handles indexing operations for court cards.
type CourtCardIndexSender interface {
	SendIndexCourtCard(ctx context.Context, action models.MessageAction, data models.CourtCard) error
	SendDeleteIndexCourtCard(ctx context.Context, data string) error
}

// CourtCardAccessSender handles access control operations for court cards.
type CourtCardAccessSender interface {
	SendUpdateAccessCourtCard(ctx context.Context, data models.CourtCardAccessMessage) error
	SendDeleteAllAccessCourtCard(ctx context.Context, data string) error
}

// SessionEventSender handles session lifecycle events.
type SessionEventSender interface {
	SendFinalizeSession(ctx context.Context, data models.SessionFinalizeMessage) error
}

// WebhookEventSender handles webhook event publishing.
type WebhookEventSender interface {
	PublishZoomWebhookEvent(ctx context.Context, subject string, message models.ZoomWebhookEventMessage) error
}

// MessageBuilder is the main interface that composes all messaging capabilities.
// Use this when a service needs access to multiple different domains.
type MessageBuilder interface {
	AttendanceSessionIndexSender
	CourtCardIndexSender
	CourtCardAccessSender
	SessionEventSender
	WebhookEventSender
}
