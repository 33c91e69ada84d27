// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"

	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/pkg/constants"
)

// INatsConn is a NATS connection interface needed for the message builder.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder is the builder for the message and sends it to the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// sendMessage sends the message to the NATS server.
func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, data []byte) error {
	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// sendIndexerMessage sends the message to the NATS server for the indexer.
func (m *MessageBuilder) sendIndexerMessage(ctx context.Context, subject string, action models.MessageAction, data []byte, tags []string) error {
	headers := make(map[string]string)
	if authorization, ok := ctx.Value(constants.AuthorizationContextID).(string); ok {
		headers[constants.AuthorizationHeader] = authorization
	} else {
		// Fallback for system-generated events (webhooks, finalization) that
		// don't carry user auth context. The indexer requires the header to be
		// present, so fill in a service identity.
		headers[constants.AuthorizationHeader] = "Bearer court-card-service"
	}
	if principal, ok := ctx.Value(constants.PrincipalContextID).(string); ok {
		headers[constants.XOnBehalfOfHeader] = principal
	}
	var payload any
	switch action {
	case models.ActionCreated, models.ActionUpdated:
		// The data should be a JSON object.
		var jsonData any
		if err := json.Unmarshal(data, &jsonData); err != nil {
			slog.ErrorContext(ctx, "error unmarshalling data into JSON", logging.ErrKey, err, "subject", subject)
			return err
		}

		// Decode the JSON data into a map[string]any since that is what the indexer expects.
		config := mapstructure.DecoderConfig{
			TagName: "json",
			Result:  &payload,
		}
		decoder, err := mapstructure.NewDecoder(&config)
		if err != nil {
			slog.ErrorContext(ctx, "error creating decoder", logging.ErrKey, err, "subject", subject)
			return err
		}
		err = decoder.Decode(jsonData)
		if err != nil {
			slog.ErrorContext(ctx, "error decoding data", logging.ErrKey, err, "subject", subject)
			return err
		}
	case models.ActionDeleted:
		// The data should just be a string of the UID being deleted.
		payload = string(data)
	}

	message := models.CourtCardIndexerMessage{
		Action:  action,
		Headers: headers,
		Data:    payload,
		Tags:    tags,
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message into JSON", logging.ErrKey, err, "subject", subject)
		return err
	}

	slog.DebugContext(ctx, "constructed indexer message",
		"subject", subject,
		"action", action,
		"tags_count", len(tags),
	)

	return m.sendMessage(ctx, subject, messageBytes)
}

// setIndexerTags sets the tags for the indexer.
func (m *MessageBuilder) setIndexerTags(tags ...string) []string {
	return tags
}

// SendIndexAttendanceSession sends the message to the NATS server for the attendance session indexing.
func (m *MessageBuilder) SendIndexAttendanceSession(ctx context.Context, action models.MessageAction, data models.AttendanceSession) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling data into JSON", logging.ErrKey, err)
		return err
	}

	tags := m.setIndexerTags(data.Tags()...)

	return m.sendIndexerMessage(ctx, models.IndexAttendanceSessionSubject, action, dataBytes, tags)
}

// SendDeleteIndexAttendanceSession sends the message to the NATS server for the attendance session indexing.
func (m *MessageBuilder) SendDeleteIndexAttendanceSession(ctx context.Context, data string) error {
	return m.sendIndexerMessage(ctx, models.IndexAttendanceSessionSubject, models.ActionDeleted, []byte(data), nil)
}

// SendIndexCourtCard sends the message to the NATS server for the court card indexing.
func (m *MessageBuilder) SendIndexCourtCard(ctx context.Context, action models.MessageAction, data models.CourtCard) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling data into JSON", logging.ErrKey, err)
		return err
	}

	tags := m.setIndexerTags(data.Tags()...)

	return m.sendIndexerMessage(ctx, models.IndexCourtCardSubject, action, dataBytes, tags)
}

// SendDeleteIndexCourtCard sends the message to the NATS server for the court card indexing.
func (m *MessageBuilder) SendDeleteIndexCourtCard(ctx context.Context, data string) error {
	return m.sendIndexerMessage(ctx, models.IndexCourtCardSubject, models.ActionDeleted, []byte(data), nil)
}

// SendUpdateAccessCourtCard sends the message to the NATS server for the court card access control updates.
func (m *MessageBuilder) SendUpdateAccessCourtCard(ctx context.Context, data models.CourtCardAccessMessage) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling data into JSON", logging.ErrKey, err)
		return err
	}

	return m.sendMessage(ctx, models.UpdateAccessCourtCardSubject, dataBytes)
}

// SendDeleteAllAccessCourtCard sends the message to the NATS server for the court card access control deletion.
func (m *MessageBuilder) SendDeleteAllAccessCourtCard(ctx context.Context, data string) error {
	return m.sendMessage(ctx, models.DeleteAllAccessCourtCardSubject, []byte(data))
}

// SendFinalizeSession sends a message requesting (re)finalization of a session.
func (m *MessageBuilder) SendFinalizeSession(ctx context.Context, data models.SessionFinalizeMessage) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling data into JSON", logging.ErrKey, err)
		return err
	}

	return m.sendMessage(ctx, models.SessionFinalizeSubject, dataBytes)
}

// PublishZoomWebhookEvent publishes a Zoom webhook event to NATS for async processing.
func (m *MessageBuilder) PublishZoomWebhookEvent(ctx context.Context, subject string, message models.ZoomWebhookEventMessage) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling Zoom webhook event into JSON", logging.ErrKey, err, "subject", subject)
		return err
	}

	slog.DebugContext(ctx, "publishing Zoom webhook event to NATS",
		"subject", subject,
		"event_type", message.EventType,
		"event_ts", message.EventTS,
	)

	return m.sendMessage(ctx, subject, messageBytes)
}
