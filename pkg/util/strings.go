package util

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// ClampInt bounds v into [lo, hi].
func ClampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

var nonPrice = regexp.MustCompile(`[^0-9.]`)

// ParsePrice extracts a number from display text such as "$1,299.99". Returns false when
// nothing numeric is left.
func ParsePrice(s string) (float64, bool) {
	cleaned := nonPrice.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SlugKey lowercases parts and joins them with '-'.
func SlugKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "-")
}
