// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/internal/middleware"
	"github.com/proofmeet/court-card-service/internal/service"
	"github.com/proofmeet/court-card-service/pkg/constants"
)

// CourtCardAPI is the HTTP surface of the court card service.
type CourtCardAPI struct {
	natsConn            natsConnChecker
	courtCardService    *service.CourtCardService
	finalizationService *service.FinalizationService
	activityService     *service.ActivityService
	zoomWebhookService  *service.ZoomWebhookService
	urlGenerator        *constants.CardURLGenerator
}

// natsConnChecker is the readiness probe's view of the NATS connection.
type natsConnChecker interface {
	IsConnected() bool
}

// NewCourtCardAPI creates a new CourtCardAPI.
func NewCourtCardAPI(
	natsConn natsConnChecker,
	courtCardService *service.CourtCardService,
	finalizationService *service.FinalizationService,
	activityService *service.ActivityService,
	zoomWebhookService *service.ZoomWebhookService,
	urlGenerator *constants.CardURLGenerator,
) *CourtCardAPI {
	return &CourtCardAPI{
		natsConn:            natsConn,
		courtCardService:    courtCardService,
		finalizationService: finalizationService,
		activityService:     activityService,
		zoomWebhookService:  zoomWebhookService,
		urlGenerator:        urlGenerator,
	}
}

// errorResponse is the JSON body for error replies.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.With(logging.ErrKey, err).Error("error encoding http response")
	}
}

// writeError translates a domain error into an HTTP status code.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		status = http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		status = http.StatusNotFound
	case domain.ErrorTypeConflict, domain.ErrorTypeNotReady:
		// Not-ready finalizations are retriable once the leave event lands.
		status = http.StatusConflict
	case domain.ErrorTypeUnavailable:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{
		Code:    strconv.Itoa(status),
		Message: err.Error(),
	})
}

// Livez checks if the service is alive.
func (s *CourtCardAPI) Livez(w http.ResponseWriter, _ *http.Request) {
	// This always returns as long as the service is still running. As this
	// endpoint is expected to be used as a Kubernetes liveness check, this
	// service must likewise self-detect non-recoverable errors and
	// self-terminate.
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK\n"))
}

// Readyz checks if the service is able to take inbound requests.
func (s *CourtCardAPI) Readyz(w http.ResponseWriter, _ *http.Request) {
	ready := s.natsConn.IsConnected() &&
		s.courtCardService.ServiceReady() &&
		s.finalizationService.ServiceReady() &&
		s.activityService.ServiceReady() &&
		s.zoomWebhookService.ServiceReady()
	if !ready {
		writeError(w, domain.NewUnavailableError("service not ready"))
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK\n"))
}

// cardResponse decorates a stored card with the app URL a court
// representative opens to verify it.
type cardResponse struct {
	*models.CourtCard
	VerificationURL string `json:"verification_url"`
}

func (s *CourtCardAPI) cardResponse(card *models.CourtCard) cardResponse {
	return cardResponse{
		CourtCard:       card,
		VerificationURL: s.urlGenerator.GenerateVerificationURL(card.UID),
	}
}

// GetCourtCard handles GET /api/v1/court-cards/{uid}.
func (s *CourtCardAPI) GetCourtCard(w http.ResponseWriter, r *http.Request) {
	ctx := logging.AppendCtx(r.Context(), slog.String("card_uid", chi.URLParam(r, "uid")))

	card, err := s.courtCardService.GetCard(ctx, chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cardResponse(card))
}

// VerifyCourtCard handles GET /api/v1/court-cards/{uid}/verify.
func (s *CourtCardAPI) VerifyCourtCard(w http.ResponseWriter, r *http.Request) {
	ctx := logging.AppendCtx(r.Context(), slog.String("card_uid", chi.URLParam(r, "uid")))

	result, err := s.courtCardService.VerifyCard(ctx, chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListParticipantCards handles GET /api/v1/participants/{id}/court-cards.
func (s *CourtCardAPI) ListParticipantCards(w http.ResponseWriter, r *http.Request) {
	ctx := logging.AppendCtx(r.Context(), slog.String("participant_uid", chi.URLParam(r, "id")))

	cards, err := s.courtCardService.ListParticipantCards(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, s.cardResponse(card))
	}
	writeJSON(w, http.StatusOK, responses)
}

// VerifyParticipantChain handles GET /api/v1/participants/{id}/chain/verify.
func (s *CourtCardAPI) VerifyParticipantChain(w http.ResponseWriter, r *http.Request) {
	ctx := logging.AppendCtx(r.Context(), slog.String("participant_uid", chi.URLParam(r, "id")))

	result, err := s.courtCardService.VerifyChain(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// FinalizeSession handles POST /api/v1/sessions/{uid}/finalize, the operator
// trigger with the same semantics as the NATS finalize subject.
func (s *CourtCardAPI) FinalizeSession(w http.ResponseWriter, r *http.Request) {
	sessionUID := chi.URLParam(r, "uid")
	ctx := logging.AppendCtx(r.Context(), slog.String("session_uid", sessionUID))

	card, err := s.finalizationService.Finalize(ctx, sessionUID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cardResponse(card))
}

// heartbeatResponse is the reply body for activity heartbeat submissions.
type heartbeatResponse struct {
	Status string `json:"status"`
}

// SubmitActivity handles POST /api/v1/sessions/{uid}/activity. Duplicates and
// rate-limited heartbeats are acknowledged without being stored so the
// monitor never retries them.
func (s *CourtCardAPI) SubmitActivity(w http.ResponseWriter, r *http.Request) {
	sessionUID := chi.URLParam(r, "uid")
	ctx := logging.AppendCtx(r.Context(), slog.String("session_uid", sessionUID))

	var req models.SubmitActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewValidationError("invalid request body", err))
		return
	}

	admission, err := s.activityService.RecordHeartbeat(ctx, sessionUID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	status := "accepted"
	switch admission {
	case domain.HeartbeatDuplicate:
		status = "duplicate"
	case domain.HeartbeatRateLimited:
		status = "rate_limited"
	}
	writeJSON(w, http.StatusAccepted, heartbeatResponse{Status: status})
}

// zoomWebhookBody is the raw shape of a Zoom webhook POST.
type zoomWebhookBody struct {
	Event   string `json:"event"`
	EventTS int64  `json:"event_ts"`
	Payload any    `json:"payload"`
}

// HandleZoomWebhook handles POST /webhooks/zoom. The signature is computed
// over the exact bytes captured by the body middleware; the event is
// published to NATS and the endpoint returns immediately.
func (s *CourtCardAPI) HandleZoomWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawBody, ok := middleware.GetRawBodyFromContext(ctx)
	if !ok {
		writeError(w, domain.NewInternalError("webhook body not captured"))
		return
	}

	var body zoomWebhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		writeError(w, domain.NewValidationError("invalid webhook body", err))
		return
	}

	response, err := s.zoomWebhookService.ProcessWebhookEvent(ctx, service.WebhookRequest{
		Event:     body.Event,
		EventTS:   body.EventTS,
		Payload:   body.Payload,
		Signature: r.Header.Get(constants.ZoomSignatureHeader),
		Timestamp: r.Header.Get(constants.ZoomTimestampHeader),
		RawBody:   rawBody,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// Endpoint validation challenges echo the token pair back to Zoom.
	if response.PlainToken != nil && response.EncryptedToken != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"plainToken":     *response.PlainToken,
			"encryptedToken": *response.EncryptedToken,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
