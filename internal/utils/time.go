package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// ParseDate parses YYYY-MM-DD in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), loc)
}

// FormatDate formats t to YYYY-MM-DD in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(layoutDate)
}

// FormatDateTime formats t to "YYYY-MM-DD HH:MM:SS" in loc.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(layoutDateTime)
}

// NormalizeDate accepts YYYY-MM-DD, "YYYY-MM-DD HH:MM:SS" or an RFC 3339 timestamp and
// returns the calendar date part as YYYY-MM-DD. Timestamps keep the date written in their
// own offset.
func NormalizeDate(raw string, loc *time.Location) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(layoutDate), nil
	}
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}
	t, err := ParseDate(s, loc)
	if err != nil {
		return "", fmt.Errorf("date %q: expected YYYY-MM-DD", raw)
	}
	return t.Format(layoutDate), nil
}
