// Package dates normalises calendar dates, event timestamps and slugs.
package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/starford/devdiary/internal/apperr"
)

// Layout is the canonical day format used for log names and titles.
const Layout = "2006-01-02"

// TimestampLayout is the stored event timestamp format (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// localLayouts are accepted for timestamps and dates without a zone; they are
// interpreted in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize converts value to YYYY-MM-DD. Plain dates are kept as-is;
// instants are converted to their UTC calendar day.
func Normalize(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", &apperr.InvalidDateError{Value: value}
	}
	if t, err := time.Parse(Layout, v); err == nil {
		return t.Format(Layout), nil
	}
	if t, ok := ParseTimestamp(v, time.Local); ok {
		return t.UTC().Format(Layout), nil
	}
	return "", &apperr.InvalidDateError{Value: value}
}

// Today returns the current calendar day in loc.
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format(Layout)
}

// OrToday normalises value, falling back to today when it is blank.
func OrToday(value string, loc *time.Location) (string, error) {
	if strings.TrimSpace(value) == "" {
		return Today(loc), nil
	}
	return Normalize(value)
}

// Format renders t as a stored event timestamp.
func Format(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Now returns the current instant as a stored event timestamp.
func Now() string {
	return Format(time.Now())
}

// ParseTimestamp parses an event timestamp. Zone-less values are read in loc.
func ParseTimestamp(ts string, loc *time.Location) (time.Time, bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, true
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, ts, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clock formats ts as HH:MM in loc. ok is false when ts does not parse.
func Clock(ts string, loc *time.Location) (string, bool) {
	t, ok := ParseTimestamp(ts, loc)
	if !ok {
		return "", false
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("15:04"), true
}

// Slugify lowercases value and collapses every run of characters outside
// [a-z0-9] into a single hyphen, trimming hyphens at both ends.
func Slugify(value string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(value), "-")
	return strings.Trim(s, "-")
}
