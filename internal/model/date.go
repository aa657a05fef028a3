package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format accepted from user input.
const DateLayout = "2006-01-02"

// timestampLayouts are the formats the server is known to emit.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateLayout,
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return t, nil
}

// StartOfDay converts a calendar date into the timestamp sent for a start date.
func StartOfDay(date string) string {
	return strings.TrimSpace(date) + "T00:00:00.000Z"
}

// EndOfDay converts a calendar date into the timestamp sent for an end date.
func EndOfDay(date string) string {
	return strings.TrimSpace(date) + "T23:59:59.999Z"
}

// CalendarDate returns the YYYY-MM-DD prefix of a server timestamp, or ""
// when ts is nil or too short.
func CalendarDate(ts *string) string {
	if ts == nil || len(*ts) < len(DateLayout) {
		return ""
	}
	return (*ts)[:len(DateLayout)]
}

// FormatDate renders a server timestamp as "Jan 02, 2006", or "—" when unset.
func FormatDate(ts *string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		return "—"
	}
	return t.Format("Jan 02, 2006")
}

func parseTimestamp(ts *string) (time.Time, bool) {
	if ts == nil || *ts == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, *ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
