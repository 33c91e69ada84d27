// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the court card service API that finalizes attendance
// sessions into verifiable court cards, serves card queries and integrity
// verification over HTTP, and handles NATS messages for the service.
package main

import (
	"context"
	_ "expvar"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/proofmeet/court-card-service/internal/handlers"
	"github.com/proofmeet/court-card-service/internal/infrastructure/messaging"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/internal/service"
	"github.com/proofmeet/court-card-service/pkg/constants"
	"github.com/proofmeet/court-card-service/pkg/utils"
)

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// OTel providers for traces, metrics and logs.
	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry SDK")
		os.Exit(1)
	}

	// Set up JWT validator needed by the API's auth middleware.
	jwtAuth, err := setupJWTAuth()
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up JWT authentication")
		os.Exit(1)
	}

	// Identity client for webhook participant resolution and card identity
	// fields (independent of NATS).
	identityClient, err := setupIdentityClient(env)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up identity client")
		return
	}

	// Redis-backed heartbeat deduplication and rate limiting.
	heartbeatLimiter := setupHeartbeatLimiter(ctx, env)

	// Setup NATS connection
	natsConn, err := setupNATS(env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	// Initialize services
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	occurrenceService := service.NewOccurrenceService()
	meetingService := service.NewMeetingService(repos.Meeting)
	attendanceSessionService := service.NewAttendanceSessionService(
		repos.Meeting,
		repos.Session,
		repos.Timeline,
		repos.Card,
		identityClient,
		occurrenceService,
		messageBuilder,
	)
	activityService := service.NewActivityService(
		repos.Session,
		repos.Timeline,
		heartbeatLimiter,
	)
	finalizationService := service.NewFinalizationService(
		repos.Meeting,
		repos.Session,
		repos.Timeline,
		repos.Card,
		identityClient,
		messageBuilder,
		service.DefaultEngagementConfig(),
	)
	courtCardService := service.NewCourtCardService(repos.Card, messageBuilder)
	zoomWebhookService := service.NewZoomWebhookService(messageBuilder, setupWebhookValidator(env))

	// Initialize handlers
	courtCardHandler := handlers.NewCourtCardHandler(
		attendanceSessionService,
		finalizationService,
		meetingService,
	)

	api := NewCourtCardAPI(
		natsConn,
		courtCardService,
		finalizationService,
		activityService,
		zoomWebhookService,
		constants.NewCardURLGenerator(env.Environment, env.AppOrigin),
	)

	httpServer := setupHTTPServer(flags, api, jwtAuth, &gracefulCloseWG)

	// Create NATS subscriptions for the service.
	err = createNatsSubcriptions(ctx, courtCardHandler, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error creating NATS subscriptions")
		return
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)

	if err := otelShutdown(context.Background()); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry SDK")
	}
}
