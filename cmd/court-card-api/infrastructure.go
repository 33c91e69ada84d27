// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/infrastructure/auth"
	"github.com/proofmeet/court-card-service/internal/infrastructure/cache"
	"github.com/proofmeet/court-card-service/internal/infrastructure/identity"
	"github.com/proofmeet/court-card-service/internal/infrastructure/store"
	"github.com/proofmeet/court-card-service/internal/infrastructure/webhook"
	"github.com/proofmeet/court-card-service/internal/logging"
)

const gracefulShutdownSeconds = 25

// setupJWTAuth configures JWT authentication for the service
func setupJWTAuth() (*auth.JWTAuth, error) {
	jwtAuthConfig := auth.JWTAuthConfig{
		JWKSURL:            os.Getenv("JWKS_URL"),
		Audience:           os.Getenv("JWT_AUDIENCE"),
		MockLocalPrincipal: os.Getenv("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL"),
	}
	return auth.NewJWTAuth(jwtAuthConfig)
}

// setupNATS connects to the NATS server used for both messaging and the
// key-value stores. The connection's closed handler releases the graceful
// shutdown wait group once the drain completes.
func setupNATS(env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	gracefulCloseWG.Add(1)

	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.DrainTimeout(gracefulShutdownSeconds*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.With("nats_url", env.NatsURL).Info("NATS connection established")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
				return
			}
			slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
		}),
		nats.ClosedHandler(func(conn *nats.Conn) {
			slog.With(logging.ErrKey, conn.LastError()).Info("NATS connection closed")
			gracefulCloseWG.Done()
			// If the connection dropped outside of a shutdown, exit.
			select {
			case done <- os.Interrupt:
			default:
			}
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, err
	}

	return natsConn, nil
}

// repositories holds the KV-backed repositories for the service.
type repositories struct {
	Meeting  *store.NatsMeetingRepository
	Session  *store.NatsAttendanceSessionRepository
	Timeline *store.NatsActivityTimelineRepository
	Card     *store.NatsCourtCardRepository
}

// getKeyValueStores opens (or creates on first boot) the JetStream KV buckets
// and wraps them in the entity repositories.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]jetstream.KeyValue, 4)
	for _, name := range []string{
		store.KVStoreNameMeetings,
		store.KVStoreNameAttendanceSessions,
		store.KVStoreNameActivityTimelines,
		store.KVStoreNameCourtCards,
	} {
		bucket, err := js.KeyValue(ctx, name)
		if errors.Is(err, jetstream.ErrBucketNotFound) {
			bucket, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: name})
		}
		if err != nil {
			return nil, err
		}
		buckets[name] = bucket
	}

	return &repositories{
		Meeting:  store.NewNatsMeetingRepository(buckets[store.KVStoreNameMeetings]),
		Session:  store.NewNatsAttendanceSessionRepository(buckets[store.KVStoreNameAttendanceSessions]),
		Timeline: store.NewNatsActivityTimelineRepository(buckets[store.KVStoreNameActivityTimelines]),
		Card:     store.NewNatsCourtCardRepository(buckets[store.KVStoreNameCourtCards]),
	}, nil
}

// setupHeartbeatLimiter wires the Redis-backed heartbeat deduplicator. Without
// a Redis address every heartbeat is admitted, which is acceptable because the
// timeline store deduplicates nothing but the pipeline tolerates duplicates.
func setupHeartbeatLimiter(ctx context.Context, env environment) domain.HeartbeatLimiter {
	if env.RedisAddr == "" {
		slog.Warn("REDIS_ADDR not set, heartbeat rate limiting disabled")
		return cache.NewNoopHeartbeatLimiter()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr,
		Password: env.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		// The limiter fails open, so a slow Redis boot is not fatal.
		slog.With(logging.ErrKey, err, "redis_addr", env.RedisAddr).Warn("redis not reachable yet")
	}

	return cache.NewRedisHeartbeatLimiter(client)
}

// setupIdentityClient wires the identity service client used to resolve
// webhook participants and card identity fields.
func setupIdentityClient(env environment) (domain.IdentityClient, error) {
	if env.Identity.ClientID == "" || env.Identity.PrivateKey == "" {
		slog.Warn("identity client credentials not set, using no-op identity client")
		return identity.NewNoopClient(), nil
	}
	return identity.NewClient(env.identityClientConfig())
}

// setupWebhookValidator selects the Zoom signature validator. The mock
// validator accepts every signature and is only for local development.
func setupWebhookValidator(env environment) domain.WebhookValidator {
	if env.ZoomWebhookSecret == "" {
		return webhook.NewMockWebhookValidator()
	}
	return webhook.NewZoomWebhookValidator(env.ZoomWebhookSecret)
}

// natsMessage adapts *nats.Msg to the domain.Message interface.
type natsMessage struct {
	msg *nats.Msg
}

func (m *natsMessage) Subject() string {
	return m.msg.Subject
}

func (m *natsMessage) Data() []byte {
	return m.msg.Data
}

func (m *natsMessage) HasReply() bool {
	return m.msg.Reply != ""
}

func (m *natsMessage) Respond(data []byte) error {
	return m.msg.Respond(data)
}

// createNatsSubcriptions subscribes the message handler to the service's
// subjects on a shared queue group so horizontally scaled replicas split the
// work.
func createNatsSubcriptions(ctx context.Context, handler domain.MessageHandler, natsConn *nats.Conn) error {
	subjects := []string{
		models.SessionFinalizeSubject,
		models.MeetingPutSubject,
		models.ZoomWebhookMeetingParticipantJoinedSubject,
		models.ZoomWebhookMeetingParticipantLeftSubject,
		models.ZoomWebhookMeetingEndedSubject,
	}

	for _, subject := range subjects {
		_, err := natsConn.QueueSubscribe(subject, models.CourtCardAPIQueue, func(msg *nats.Msg) {
			handler.HandleMessage(ctx, &natsMessage{msg: msg})
		})
		if err != nil {
			slog.With(logging.ErrKey, err, "subject", subject).Error("error subscribing to NATS subject")
			return err
		}
		slog.With("subject", subject, "queue", models.CourtCardAPIQueue).Debug("subscribed to NATS subject")
	}

	return nil
}

// gracefulShutdown drains the HTTP server, then the NATS connection, then
// cancels the root context. Order matters: in-flight HTTP requests may still
// publish messages, so NATS drains last.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownSeconds*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down http server")
	}
	gracefulCloseWG.Done()

	if !natsConn.IsClosed() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	gracefulCloseWG.Wait()
	cancel()
}
