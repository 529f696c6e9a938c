package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ParseDate reads an ISO local date (2006-01-02).
func ParseDate(s string) (civil.Date, error) {
	return civil.ParseDate(s)
}

// FormatDate renders d as yyyy-mm-dd.
func FormatDate(d civil.Date) string { return d.String() }

// ParseTime reads HH:MM, HH:MM:SS or HH:MM:SS.fffffffff.
func ParseTime(s string) (civil.Time, error) {
	if len(s) == len("15:04") {
		t, err := time.Parse("15:04", s)
		if err != nil {
			return civil.Time{}, err
		}
		return civil.TimeOf(t), nil
	}
	return civil.ParseTime(s)
}

// FormatTime renders t omitting zero seconds and grouping the fraction in
// milli, micro or nano digits, e.g. "11:06", "11:06:07", "11:06:07.250".
func FormatTime(t civil.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d:%02d", t.Hour, t.Minute)
	if t.Second == 0 && t.Nanosecond == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, ":%02d", t.Second)
	if n := t.Nanosecond; n > 0 {
		switch {
		case n%1_000_000 == 0:
			fmt.Fprintf(&b, ".%03d", n/1_000_000)
		case n%1_000 == 0:
			fmt.Fprintf(&b, ".%06d", n/1_000)
		default:
			fmt.Fprintf(&b, ".%09d", n)
		}
	}
	return b.String()
}

// ParseDateTime reads a local date-time joined by 'T'.
func ParseDateTime(s string) (civil.DateTime, error) {
	i := strings.IndexAny(s, "Tt")
	if i < 0 {
		return civil.DateTime{}, fmt.Errorf("codec: missing 'T' in date-time %q", s)
	}
	d, err := ParseDate(s[:i])
	if err != nil {
		return civil.DateTime{}, err
	}
	t, err := ParseTime(s[i+1:])
	if err != nil {
		return civil.DateTime{}, err
	}
	return civil.DateTime{Date: d, Time: t}, nil
}

// FormatDateTime renders dt as FormatDate + "T" + FormatTime.
func FormatDateTime(dt civil.DateTime) string {
	return FormatDate(dt.Date) + "T" + FormatTime(dt.Time)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
