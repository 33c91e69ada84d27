// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"fmt"
	"strconv"
	"time"
)

// FormatOccurrenceID converts an occurrence's scheduled start time into its
// occurrence ID, the Unix start timestamp in seconds.
// e.g. 2023-08-16T05:48:26Z -> 1692164906
func FormatOccurrenceID(start time.Time) string {
	return strconv.FormatInt(start.UTC().Unix(), 10)
}

// ParseOccurrenceID converts an occurrence ID back into the occurrence's
// scheduled start time in UTC.
// e.g. 1692164906 -> 2023-08-16T05:48:26Z
func ParseOccurrenceID(id string) (time.Time, error) {
	ts, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid occurrence ID %q: %w", id, err)
	}
	return time.Unix(ts, 0).UTC(), nil
}
