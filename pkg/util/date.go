package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTime accepts RFC3339 (with or without fractional seconds), a plain date, or unix
// seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseRange parses optional from/to bounds. Empty values stay zero; an unparsable value or
// from after to is an error.
func ParseRange(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		var ok bool
		if from, ok = ParseTime(fromStr); !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from %q", fromStr)
		}
	}
	if toStr != "" {
		var ok bool
		if to, ok = ParseTime(toStr); !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to %q", toStr)
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from must not be after to")
	}
	return from, to, nil
}
