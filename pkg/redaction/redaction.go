// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package redaction masks personally identifiable values before they reach
// logs or messages.
package redaction

import "strings"

// RedactEmail masks the local part of an email address, keeping the first
// character and the domain (e.g. "jdoe@example.org" -> "j***@example.org").
// Values without an "@" are fully masked.
func RedactEmail(email string) string {
	if email == "" {
		return ""
	}

	local, domain, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "***"
	}

	return local[:1] + "***@" + domain
}

// Redact fully masks a value while preserving whether it was set, for log
// fields that should never carry the raw value.
func Redact(value string) string {
	if value == "" {
		return ""
	}
	return "***"
}
