package service

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. Values without a zone are read as UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339, // also accepts fractional seconds
	"2006-01-02T15:04:05",
}

// ParseDate parses a client-supplied date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// startOfDay returns midnight UTC of t's day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// endOfDay returns the last representable instant of t's UTC day.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// parseDayBound parses s and snaps it to the start or end of its day.
// An empty s yields nil.
func parseDayBound(s string, end bool) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	if end {
		t = endOfDay(t)
	} else {
		t = startOfDay(t)
	}
	return &t, nil
}
