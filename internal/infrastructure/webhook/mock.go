// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package webhook

import (
	"log/slog"
)

// MockWebhookValidator is a mock implementation that always passes validation for testing
// and local development without a configured Zoom secret.
type MockWebhookValidator struct{}

// NewMockWebhookValidator creates a new mock webhook validator.
func NewMockWebhookValidator() *MockWebhookValidator {
	return &MockWebhookValidator{}
}

// ValidateSignature always returns nil for mock mode.
func (m *MockWebhookValidator) ValidateSignature(body []byte, signature, timestamp string) error {
	slog.Debug("mock webhook validator - bypassing signature validation")
	return nil
}

// IsValidEvent accepts the same event set as the real validator.
func (m *MockWebhookValidator) IsValidEvent(eventType string) bool {
	return NewZoomWebhookValidator("mock").IsValidEvent(eventType)
}

// GetSecretToken returns a fixed mock secret.
func (m *MockWebhookValidator) GetSecretToken() string {
	return "mock-secret-token"
}
