// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/internal/service"
)

// CourtCardHandler routes NATS messages for the court card service: session
// finalization requests, meeting directory writes, and the Zoom webhook
// events republished by the HTTP intake.
type CourtCardHandler struct {
	attendanceSessionService *service.AttendanceSessionService
	finalizationService      *service.FinalizationService
	meetingService           *service.MeetingService
}

func NewCourtCardHandler(
	attendanceSessionService *service.AttendanceSessionService,
	finalizationService *service.FinalizationService,
	meetingService *service.MeetingService,
) *CourtCardHandler {
	return &CourtCardHandler{
		attendanceSessionService: attendanceSessionService,
		finalizationService:      finalizationService,
		meetingService:           meetingService,
	}
}

func (s *CourtCardHandler) HandlerReady() bool {
	return s.attendanceSessionService.ServiceReady() &&
		s.finalizationService.ServiceReady() &&
		s.meetingService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (s *CourtCardHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	var response []byte
	var err error

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.SessionFinalizeSubject:                     s.HandleSessionFinalize,
		models.MeetingPutSubject:                          s.HandleMeetingPut,
		models.ZoomWebhookMeetingParticipantJoinedSubject: s.attendanceSessionService.HandleZoomParticipantJoined,
		models.ZoomWebhookMeetingParticipantLeftSubject:   s.attendanceSessionService.HandleZoomParticipantLeft,
		models.ZoomWebhookMeetingEndedSubject:             s.attendanceSessionService.HandleZoomMeetingEnded,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		if msg.HasReply() {
			err = msg.Respond(nil)
			if err != nil {
				slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
			}
		}
		return
	}

	response, err = handler(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error handling message",
			logging.ErrKey, err,
		)
		if msg.HasReply() {
			err = msg.Respond(nil)
			if err != nil {
				slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
			}
		}
		return
	}

	if msg.HasReply() {
		err = msg.Respond(response)
		if err != nil {
			slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
			return
		}
		slog.DebugContext(ctx, "responded to NATS message", "response", response)
	} else {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
	}
}

// HandleSessionFinalize is the message handler for the session-finalize
// subject. The reply carries the resulting card; a not-ready session is an
// error so the publisher can retry once the leave event lands.
func (s *CourtCardHandler) HandleSessionFinalize(ctx context.Context, msg domain.Message) ([]byte, error) {
	if !s.finalizationService.ServiceReady() {
		slog.ErrorContext(ctx, "finalization service not ready")
		return nil, domain.NewUnavailableError("finalization service not ready")
	}

	var finalizeMsg models.SessionFinalizeMessage
	if err := json.Unmarshal(msg.Data(), &finalizeMsg); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling session finalize message", logging.ErrKey, err)
		return nil, err
	}

	if finalizeMsg.SessionUID == "" {
		slog.WarnContext(ctx, "session UID is empty in finalize message")
		return nil, domain.NewValidationError("session UID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("session_uid", finalizeMsg.SessionUID))

	card, err := s.finalizationService.Finalize(ctx, finalizeMsg.SessionUID)
	if err != nil {
		return nil, err
	}

	response, err := json.Marshal(card)
	if err != nil {
		slog.ErrorContext(ctx, "error marshaling court card response", logging.ErrKey, err)
		return nil, err
	}

	return response, nil
}

// HandleMeetingPut is the message handler for the meeting-put subject used by
// the admin tooling to maintain the meeting directory.
func (s *CourtCardHandler) HandleMeetingPut(ctx context.Context, msg domain.Message) ([]byte, error) {
	if !s.meetingService.ServiceReady() {
		slog.ErrorContext(ctx, "meeting service not ready")
		return nil, domain.NewUnavailableError("meeting service not ready")
	}

	var putRequest models.PutMeetingRequest
	if err := json.Unmarshal(msg.Data(), &putRequest); err != nil {
		slog.ErrorContext(ctx, "error unmarshaling meeting put message", logging.ErrKey, err)
		return nil, err
	}

	meeting, err := s.meetingService.PutMeeting(ctx, putRequest)
	if err != nil {
		return nil, err
	}

	response, err := json.Marshal(meeting)
	if err != nil {
		slog.ErrorContext(ctx, "error marshaling meeting response", logging.ErrKey, err)
		return nil, err
	}

	return response, nil
}
