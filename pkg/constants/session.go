// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// Attendance session time constraints
const (
	// HeartbeatIntervalSeconds is the nominal cadence of the in-meeting activity monitor
	HeartbeatIntervalSeconds = 30

	// MaxMeetingDurationMinutes is the maximum scheduled duration of a meeting in minutes
	MaxMeetingDurationMinutes = 600

	// OccurrenceLookbackHours is how far back occurrence resolution searches for a
	// scheduled occurrence matching a join timestamp
	OccurrenceLookbackHours = 24
)
