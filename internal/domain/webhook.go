// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

// WebhookValidator validates incoming webhook requests from a meeting platform.
type WebhookValidator interface {
	// ValidateSignature verifies the platform's HMAC signature over the raw
	// request body.
	ValidateSignature(body []byte, signature, timestamp string) error

	// IsValidEvent reports whether the event type is one this service handles.
	IsValidEvent(eventType string) bool

	// GetSecretToken returns the configured webhook secret. Needed for the
	// endpoint URL validation challenge, which hashes the plain token.
	GetSecretToken() string
}
