package gamify

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-day form stored for every session.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date string cannot be interpreted as a calendar day.
var ErrInvalidDate = errors.New("invalid date")

var canonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Layouts accepted for non-canonical input. Inputs without a zone are read as UTC.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/1/2",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006",
}

// NormalizeDateToISO returns input in YYYY-MM-DD form.
// Canonical input is returned unchanged. Anything else is parsed as an instant and
// reformatted from its UTC year, month and day. Input that cannot be parsed is returned
// unchanged together with ErrInvalidDate so callers can refuse to store it.
func NormalizeDateToISO(input string) (string, error) {
	s := strings.TrimSpace(input)
	if canonicalDate.MatchString(s) {
		if _, err := time.Parse(DateLayout, s); err != nil {
			return input, ErrInvalidDate
		}
		return s, nil
	}
	// JS Date.toString() appends a zone name, e.g. "(Central European Standard Time)".
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(DateLayout), nil
		}
	}
	return input, ErrInvalidDate
}

// ParseDay parses a canonical date into the UTC midnight instant of that day.
func ParseDay(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// WeekBounds returns the Sunday 00:00 UTC that starts the week containing day, and the
// following Sunday 00:00 UTC that ends it (exclusive).
func WeekBounds(day time.Time) (time.Time, time.Time) {
	d := day.UTC()
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	start := midnight.AddDate(0, 0, -int(midnight.Weekday()))
	return start, start.AddDate(0, 0, 7)
}
