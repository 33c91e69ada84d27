// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/proofmeet/court-card-service/internal/infrastructure/auth"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/internal/middleware"
)

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, api *CourtCardAPI, jwtAuth *auth.JWTAuth, gracefulCloseWG *sync.WaitGroup) *http.Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestLoggerMiddleware())

	// Health endpoints and metrics are unauthenticated.
	router.Get("/livez", api.Livez)
	router.Get("/readyz", api.Readyz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// The webhook intake authenticates with the Zoom HMAC signature instead
	// of a bearer token. The middleware captures the raw body so the
	// signature is computed over exact bytes.
	router.Group(func(r chi.Router) {
		r.Use(middleware.WebhookBodyCaptureMiddleware())
		r.Post("/webhooks/zoom", api.HandleZoomWebhook)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtAuth))

		r.Get("/court-cards/{uid}", api.GetCourtCard)
		r.Get("/court-cards/{uid}/verify", api.VerifyCourtCard)
		r.Get("/participants/{id}/court-cards", api.ListParticipantCards)
		r.Get("/participants/{id}/chain/verify", api.VerifyParticipantChain)
		r.Post("/sessions/{uid}/finalize", api.FinalizeSession)
		r.Post("/sessions/{uid}/activity", api.SubmitActivity)
	})

	handler := otelhttp.NewHandler(router, "court-card-api")

	// Set up http listener in a goroutine using provided command line parameters.
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
