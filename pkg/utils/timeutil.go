package utils

import (
	"time"
)

// TimestampLayout is the fixed key format of every normalized price series.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar date format used for filing dates.
const DateLayout = "2006-01-02"

// FormatTimestamp renders t in the fixed series key format, in t's own location.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FormatUnix converts a Unix-seconds timestamp into a series key in loc.
// A nil loc means UTC.
func FormatUnix(sec int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return FormatTimestamp(time.Unix(sec, 0).In(loc))
}

// ParseTimestamp parses a series key back into an instant in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(TimestampLayout, s, loc)
}

// LoadLocation returns the named time zone, falling back to UTC when the
// name is empty or the tz database does not know it.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate parses the date formats seen on EDGAR pages and feeds.
// It returns the zero time when nothing matches.
func ParseDate(s string) time.Time {
	for _, layout := range []string{
		DateLayout,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"01/02/2006",
		TimestampLayout,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
