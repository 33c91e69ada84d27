// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package identity is the client for the ProofMeet identity and registration
// subsystem, which owns participant and case metadata.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-auth0/authentication"
	"github.com/auth0/go-auth0/authentication/oauth"
	"golang.org/x/oauth2"

	"github.com/proofmeet/court-card-service/internal/domain"
	"github.com/proofmeet/court-card-service/internal/domain/models"
)

const tokenExpiryLeeway = 60 * time.Second

// Config holds identity service client configuration.
type Config struct {
	BaseURL     string
	ClientID    string
	PrivateKey  string // RSA private key in PEM format
	Auth0Domain string
	Audience    string
	Timeout     time.Duration
}

// Client implements domain.IdentityClient against the identity service's
// HTTP API with Auth0 M2M authentication.
type Client struct {
	httpClient *http.Client
	config     Config
}

var _ domain.IdentityClient = (*Client)(nil)

// auth0TokenSource implements oauth2.TokenSource using the Auth0 SDK with a
// private key assertion.
type auth0TokenSource struct {
	ctx        context.Context
	authConfig *authentication.Authentication
	audience   string
}

// Token implements the oauth2.TokenSource interface.
func (a *auth0TokenSource) Token() (*oauth2.Token, error) {
	ctx := a.ctx
	if ctx == nil {
		ctx = context.TODO()
	}

	body := oauth.LoginWithClientCredentialsRequest{
		Audience: a.audience,
	}

	tokenSet, err := a.authConfig.OAuth.LoginWithClientCredentials(ctx, body, oauth.IDTokenValidationOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get token from Auth0: %w", err)
	}

	// Convert Auth0 response to oauth2.Token with leeway for expiration.
	token := &oauth2.Token{
		AccessToken:  tokenSet.AccessToken,
		TokenType:    tokenSet.TokenType,
		RefreshToken: tokenSet.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(tokenSet.ExpiresIn)*time.Second - tokenExpiryLeeway),
	}

	token = token.WithExtra(map[string]any{
		"scope": tokenSet.Scope,
	})

	return token, nil
}

// NewClient creates a new identity service client with OAuth2 M2M
// authentication using a private key.
func NewClient(config Config) (*Client, error) {
	ctx := context.Background()

	if config.PrivateKey == "" {
		return nil, fmt.Errorf("IDENTITY_CLIENT_PRIVATE_KEY is required but not set")
	}

	// Strip trailing slash from base URL to prevent double slashes in URL construction.
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	// The private key should be in PEM format (raw, not base64-encoded).
	authConfig, err := authentication.New(
		ctx,
		config.Auth0Domain,
		authentication.WithClientID(config.ClientID),
		authentication.WithClientAssertion(config.PrivateKey, "RS256"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Auth0 client: %w (ensure IDENTITY_CLIENT_PRIVATE_KEY contains a valid RSA private key in PEM format)", err)
	}

	tokenSource := &auth0TokenSource{
		ctx:        ctx,
		authConfig: authConfig,
		audience:   config.Audience,
	}

	// oauth2.ReuseTokenSource caches and renews tokens automatically.
	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, tokenSource))
	httpClient.Timeout = config.Timeout

	return &Client{
		httpClient: httpClient,
		config:     config,
	}, nil
}

// ResolveParticipant maps a webhook identity to a registered participant.
func (c *Client) ResolveParticipant(ctx context.Context, email, platformUserID string) (*models.ParticipantIdentity, error) {
	if email == "" && platformUserID == "" {
		return nil, domain.NewValidationError("either email or platform user ID is required")
	}

	params := url.Values{}
	if email != "" {
		params.Add("email", email)
	}
	if platformUserID != "" {
		params.Add("platform_user_id", platformUserID)
	}

	queryURL := fmt.Sprintf("%s/v1/participants/resolve?%s", c.config.BaseURL, params.Encode())

	var result models.ParticipantIdentity
	if err := c.get(ctx, queryURL, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetEnrollment fetches the participant's active case enrollment.
func (c *Client) GetEnrollment(ctx context.Context, participantUID string) (*models.Enrollment, error) {
	if participantUID == "" {
		return nil, domain.NewValidationError("participant UID is required")
	}

	queryURL := fmt.Sprintf("%s/v1/participants/%s/enrollment", c.config.BaseURL, url.PathEscape(participantUID))

	var result models.Enrollment
	if err := c.get(ctx, queryURL, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// get executes an authenticated GET request and unmarshals the JSON response.
func (c *Client) get(ctx context.Context, url string, result any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.NewInternalError("failed to create request", err)
	}

	// Authorization is added by the OAuth2 transport.
	httpReq.Header.Set("Accept", "application/json")

	slog.DebugContext(ctx, "identity API request", "method", http.MethodGet, "url", url)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.NewUnavailableError("identity service request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewInternalError("failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.ErrorContext(ctx, "identity API response error",
			"status_code", resp.StatusCode,
			"body", string(respBody),
		)
		return c.mapHTTPError(resp.StatusCode, respBody)
	}

	slog.DebugContext(ctx, "identity API response", "status_code", resp.StatusCode)

	if err := json.Unmarshal(respBody, result); err != nil {
		return domain.NewInternalError("failed to parse response", err)
	}

	return nil
}

// errorResponse is the identity service's error body shape.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// mapHTTPError maps HTTP status codes to domain errors.
func (c *Client) mapHTTPError(statusCode int, body []byte) error {
	var errMsg errorResponse
	_ = json.Unmarshal(body, &errMsg)

	message := errMsg.Message
	if message == "" {
		message = errMsg.Error
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d error", statusCode)
	}

	switch statusCode {
	case http.StatusBadRequest:
		return domain.NewValidationError(message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewValidationError(fmt.Sprintf("authentication/authorization failed: %s", message))
	case http.StatusNotFound:
		return domain.NewNotFoundError(message)
	case http.StatusConflict:
		return domain.NewConflictError(message)
	case http.StatusServiceUnavailable:
		return domain.NewUnavailableError(message)
	default:
		return domain.NewInternalError(message)
	}
}
