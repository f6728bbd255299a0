// Package utils provides shared helpers used across the application: the
// great-circle distance every scorer filters with, and identifier generation.
//
// Go Learning Note — "pkg/" Directory Convention:
// Code under pkg/ is intended to be importable by external projects (unlike
// internal/ which is compiler-enforced private). The distance helper lives
// here because it is the one piece of math every component shares.
package utils

import (
	"github.com/google/uuid"
)

// GenerateID creates a new random UUID string. Recommendation sessions use it
// so a client that did not send an X-Session-ID still gets a stable handle for
// its "already recommended" set.
func GenerateID() string {
	return uuid.New().String()
}

// IsValidID reports whether s parses as a UUID. Session ids supplied by
// clients are accepted only when they do.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
