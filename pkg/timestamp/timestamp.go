// Package timestamp provides the ISO-8601 timestamp format used in
// tracking documents.
//
// All timestamps are UTC, second precision, with a "Z" suffix. The format
// is part of the stable persisted contract, so never change it without a
// migration plan for existing tracking indices.
package timestamp

import "time"

// Layout is the persisted timestamp layout (ISO-8601, UTC, "Z" suffix).
const Layout = "2006-01-02T15:04:05Z"

// Clock returns the current timestamp string. Injectable so trackers can be
// tested with a fixed clock.
type Clock func() string

// Now returns the current UTC time formatted per Layout.
func Now() string {
	return time.Now().UTC().Format(Layout)
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() string {
		return t.UTC().Format(Layout)
	}
}

// Parse parses a persisted timestamp string.
func Parse(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}
