// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package redaction

import (
	"testing"
)

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{
			name:     "standard email",
			email:    "jdoe@example.org",
			expected: "j***@example.org",
		},
		{
			name:     "single character local part",
			email:    "a@example.org",
			expected: "a***@example.org",
		},
		{
			name:     "empty string",
			email:    "",
			expected: "",
		},
		{
			name:     "no at sign",
			email:    "not-an-email",
			expected: "***",
		},
		{
			name:     "empty local part",
			email:    "@example.org",
			expected: "***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactEmail(tt.email); got != tt.expected {
				t.Errorf("RedactEmail(%q) = %q, expected %q", tt.email, got, tt.expected)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("secret"); got != "***" {
		t.Errorf("Redact() = %q, expected %q", got, "***")
	}
	if got := Redact(""); got != "" {
		t.Errorf("Redact(\"\") = %q, expected empty", got)
	}
}
