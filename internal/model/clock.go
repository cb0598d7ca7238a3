package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts an HH:MM or HH:MM:SS string to minutes from midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("parse clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as HH:MM.
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// ParseWindow parses a stop's window strings, falling back to the given
// default window when either bound is absent or malformed.
func ParseWindow(start, end string, fallback TimeWindow) TimeWindow {
	if start == "" || end == "" {
		return fallback
	}
	s, err := ParseClock(start)
	if err != nil {
		return fallback
	}
	e, err := ParseClock(end)
	if err != nil {
		return fallback
	}
	return TimeWindow{Start: s, End: e}
}
