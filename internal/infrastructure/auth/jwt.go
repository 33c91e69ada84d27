// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates JWT bearer tokens issued by the platform gateway
// and extracts the authenticated principal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/proofmeet/court-card-service/internal/logging"
)

const (
	defaultJWKSURL  = "http://heimdall:4457/.well-known/jwks"
	defaultAudience = "court-card-service"

	jwksCacheTTL = 5 * time.Minute
)

// JWTAuthConfig configures the JWT validator.
type JWTAuthConfig struct {
	// JWKSURL is the JSON Web Key Set endpoint of the token issuer.
	JWKSURL string
	// Audience is the expected token audience.
	Audience string
	// MockLocalPrincipal, when set, bypasses validation entirely and returns
	// the configured principal. Local development only.
	MockLocalPrincipal string
}

// JWTAuth parses and validates bearer tokens.
type JWTAuth struct {
	config    JWTAuthConfig
	validator *validator.Validator
}

// HeimdallClaims are the custom claims the gateway embeds in forwarded tokens.
type HeimdallClaims struct {
	Principal string `json:"principal"`
	Email     string `json:"email,omitempty"`
}

// Validate implements validator.CustomClaims.
func (c *HeimdallClaims) Validate(_ context.Context) error {
	if c.Principal == "" {
		return errors.New("principal must be provided")
	}
	return nil
}

// NewJWTAuth creates a JWT validator backed by a cached JWKS provider.
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	if config.JWKSURL == "" {
		config.JWKSURL = defaultJWKSURL
	}
	if config.Audience == "" {
		config.Audience = defaultAudience
	}

	issuerURL, err := url.Parse(config.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS URL: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, jwksCacheTTL)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{config.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &HeimdallClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up JWT validator: %w", err)
	}

	return &JWTAuth{
		config:    config,
		validator: jwtValidator,
	}, nil
}

// ParsePrincipal validates the bearer token and returns the principal claim.
func (a *JWTAuth) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error) {
	if a.config.MockLocalPrincipal != "" {
		logger.WarnContext(ctx, "using mock principal; do not use in production",
			"principal", a.config.MockLocalPrincipal,
		)
		return a.config.MockLocalPrincipal, nil
	}

	if a.validator == nil {
		return "", errors.New("JWT validator is not set up")
	}

	parsed, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		logger.DebugContext(ctx, "token validation failed", logging.ErrKey, err)
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.(*validator.ValidatedClaims)
	if !ok {
		return "", errors.New("unexpected validated claims type")
	}

	custom, ok := claims.CustomClaims.(*HeimdallClaims)
	if !ok {
		return "", errors.New("missing principal claims")
	}

	return custom.Principal, nil
}
