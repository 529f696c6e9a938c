// Package codec holds the text forms of the calendar kinds: RFC 3339 instants,
// ISO-8601 durations and ISO local dates and times. Every Format function
// produces the shortest text its Parse counterpart reads back to the same value.
package codec

import (
	"time"
)

// ParseInstant accepts RFC3339Nano (trailing zeros optional) and RFC3339.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2.UTC(), nil
		}
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatInstant normalizes to UTC and formats with RFC3339Nano, which trims
// trailing zeros of the fraction.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
