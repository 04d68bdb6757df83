package validate

import (
	"fmt"
	"strconv"
	"time"
)

const maxTitleLen = 200

// Title checks the user-facing trip title: required, capped length.
func Title(v string) error {
	if v == "" {
		return fmt.Errorf("title is required")
	}
	if len(v) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	return nil
}

// Destination checks the destination string the same way.
func Destination(v string) error {
	if v == "" {
		return fmt.Errorf("destination is required")
	}
	if len(v) > maxTitleLen {
		return fmt.Errorf("destination exceeds %d characters", maxTitleLen)
	}
	return nil
}

// Date parses a calendar date, accepting bare dates and RFC 3339 timestamps.
func Date(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", v)
}

// DateTime parses a timestamp, accepting RFC 3339 and a bare local form.
func DateTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02 15:04", v); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, want RFC 3339", v)
}

// PageParam parses a pagination query parameter with a default.
func PageParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return n, nil
}
