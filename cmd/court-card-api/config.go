// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/proofmeet/court-card-service/internal/infrastructure/identity"
	"github.com/proofmeet/court-card-service/internal/logging"
)

// flags are the command line flags for the court card service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the court card service.
type environment struct {
	Port              string
	Environment       string
	AppOrigin         string
	NatsURL           string
	ZoomWebhookSecret string
	RedisAddr         string
	RedisPassword     string
	Identity          identityConfig
}

// identityConfig holds identity service client configuration. When the client
// credentials are unset the service falls back to the no-op client, which is
// only suitable for local development.
type identityConfig struct {
	BaseURL     string
	ClientID    string
	PrivateKey  string
	Auth0Domain string
	Audience    string
}

// parseFlags parses command line flags for the court card service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the court card service
func parseEnv() environment {
	// A local .env file takes effect only for variables not already set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.With(logging.ErrKey, err).Warn("error loading .env file")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	environmentRaw := os.Getenv("PROOFMEET_ENVIRONMENT")
	var appEnvironment string
	switch environmentRaw {
	case "dev", "development":
		appEnvironment = "dev"
	case "staging", "stg", "stage":
		appEnvironment = "staging"
	case "prod", "production":
		appEnvironment = "prod"
	default:
		appEnvironment = "prod" // Default to production
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats:4222"
	}

	zoomWebhookSecret := os.Getenv("ZOOM_WEBHOOK_SECRET_TOKEN")
	if zoomWebhookSecret == "" {
		slog.Warn("ZOOM_WEBHOOK_SECRET_TOKEN not set, using mock webhook validation")
	}

	return environment{
		Port:              port,
		Environment:       appEnvironment,
		AppOrigin:         os.Getenv("APP_ORIGIN"),
		NatsURL:           natsURL,
		ZoomWebhookSecret: zoomWebhookSecret,
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		Identity:          parseIdentityConfig(),
	}
}

// parseIdentityConfig parses identity service client configuration from
// environment variables.
func parseIdentityConfig() identityConfig {
	baseURL := os.Getenv("IDENTITY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://identity.dev.proofmeet.org"
	}

	auth0Domain := os.Getenv("IDENTITY_AUTH0_DOMAIN")
	if auth0Domain == "" {
		auth0Domain = "proofmeet-dev.auth0.com"
	}

	audience := os.Getenv("IDENTITY_AUDIENCE")
	if audience == "" {
		audience = baseURL + "/"
	}

	return identityConfig{
		BaseURL:     baseURL,
		ClientID:    os.Getenv("IDENTITY_CLIENT_ID"),
		PrivateKey:  os.Getenv("IDENTITY_CLIENT_PRIVATE_KEY"),
		Auth0Domain: auth0Domain,
		Audience:    audience,
	}
}

// identityClientConfig converts the parsed environment into the identity
// client's configuration.
func (e environment) identityClientConfig() identity.Config {
	return identity.Config{
		BaseURL:     e.Identity.BaseURL,
		ClientID:    e.Identity.ClientID,
		PrivateKey:  e.Identity.PrivateKey,
		Auth0Domain: e.Identity.Auth0Domain,
		Audience:    e.Identity.Audience,
		Timeout:     10 * time.Second,
	}
}
