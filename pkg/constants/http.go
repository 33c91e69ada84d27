// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"fmt"
	"net/url"
)

// Constants for the HTTP request headers
const (
	// AuthorizationHeader is the header name for the authorization
	AuthorizationHeader string = "authorization"

	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"

	// EtagHeader is the header name for the ETag
	EtagHeader string = "ETag"

	// XOnBehalfOfHeader is the header name for the on behalf of principal
	XOnBehalfOfHeader string = "x-on-behalf-of"

	// ZoomSignatureHeader is the header name for the Zoom webhook signature
	ZoomSignatureHeader string = "x-zm-signature"

	// ZoomTimestampHeader is the header name for the Zoom webhook request timestamp
	ZoomTimestampHeader string = "x-zm-request-timestamp"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"

// contextAuthorization is the type for the authorization context key
type contextAuthorization string

// AuthorizationContextID is the context ID for the authorization
const AuthorizationContextID contextAuthorization = "authorization"

// contextPrincipal is the type for the principal context key
type contextPrincipal string

// PrincipalContextID is the context ID for the principal
const PrincipalContextID contextPrincipal = "x-on-behalf-of"

type contextEtag string

// ETagContextID is the context ID for the ETag
const ETagContextID contextEtag = "etag"

// ProofMeet app domain constants
const (
	// AppDomainDev is the development domain
	AppDomainDev = "app.dev.proofmeet.org"
	// AppDomainStaging is the staging domain
	AppDomainStaging = "app.staging.proofmeet.org"
	// AppDomainProd is the production domain
	AppDomainProd = "app.proofmeet.org"
)

// GetAppDomain returns the appropriate ProofMeet app domain based on the environment
// Environment should be one of: "dev", "staging", "prod"
func GetAppDomain(environment string) string {
	switch environment {
	case "dev":
		return AppDomainDev
	case "staging":
		return AppDomainStaging
	case "prod":
		return AppDomainProd
	default:
		// Default to production domain if environment is not one of the expected values
		return AppDomainProd
	}
}

// CardURLGenerator generates ProofMeet app URLs with environment-specific domains or custom app origins
type CardURLGenerator struct {
	environment     string
	customAppOrigin string
}

// NewCardURLGenerator creates a new CardURLGenerator with the given environment and optional custom app origin
func NewCardURLGenerator(environment, customAppOrigin string) *CardURLGenerator {
	return &CardURLGenerator{
		environment:     environment,
		customAppOrigin: customAppOrigin,
	}
}

// GenerateVerificationURL generates the app URL a court representative opens to verify a card
func (g *CardURLGenerator) GenerateVerificationURL(cardUID string) string {
	if g.customAppOrigin != "" {
		return fmt.Sprintf("%s/court-cards/%s/verify", g.customAppOrigin, url.PathEscape(cardUID))
	}
	domain := GetAppDomain(g.environment)
	return fmt.Sprintf("https://%s/court-cards/%s/verify", domain, url.PathEscape(cardUID))
}

// GenerateChainURL generates the app URL for a participant's full card chain
func (g *CardURLGenerator) GenerateChainURL(participantID string) string {
	if g.customAppOrigin != "" {
		return fmt.Sprintf("%s/participants/%s/court-cards", g.customAppOrigin, url.PathEscape(participantID))
	}
	domain := GetAppDomain(g.environment)
	return fmt.Sprintf("https://%s/participants/%s/court-cards", domain, url.PathEscape(participantID))
}
