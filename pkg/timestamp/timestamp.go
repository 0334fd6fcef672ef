// Package timestamp provides standardized Unix timestamp handling.
//
// All timestamps in plantstream are int64 milliseconds since the Unix
// epoch (UTC). A value of 0 means "not set": a plant that has never been
// watered carries LastWatering == 0. Functions here handle zero values
// gracefully rather than producing epoch-1970 artifacts.
package timestamp

import "time"

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to time.Time.
// Returns zero time if the timestamp is 0.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// formatLayout is RFC3339 with millisecond precision, so formatted
// timestamps round-trip through Parse without losing resolution.
const formatLayout = "2006-01-02T15:04:05.000Z07:00"

// Format converts Unix milliseconds to an RFC3339 string for display and
// CSV export. Returns empty string if the timestamp is 0.
func Format(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(formatLayout)
}

// Parse converts an RFC3339 string (with or without fractional seconds)
// to Unix milliseconds. Returns 0 for empty or unparseable input.
func Parse(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0
	}
	return ToUnixMs(t)
}

// IsZero checks if a timestamp is unset.
func IsZero(ms int64) bool {
	return ms == 0
}

// Add adds a duration to a timestamp and returns the new timestamp.
// Returns 0 if the input timestamp is zero.
func Add(ms int64, d time.Duration) int64 {
	if ms == 0 {
		return 0
	}
	return time.UnixMilli(ms).Add(d).UnixMilli()
}

// Sub subtracts a duration from a timestamp and returns the new timestamp.
// Returns 0 if the input timestamp is zero.
func Sub(ms int64, d time.Duration) int64 {
	if ms == 0 {
		return 0
	}
	return time.UnixMilli(ms).Add(-d).UnixMilli()
}
