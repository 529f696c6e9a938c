package codec

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestInstant_Roundtrip(t *testing.T) {
	in := "2025-01-01T00:00:00Z"
	got, err := ParseInstant(in)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", got)
	}
	if out := FormatInstant(got); out != in {
		t.Fatalf("roundtrip mismatch: %s != %s", out, in)
	}
	off, err := ParseInstant("2025-01-01T02:00:00.500+02:00")
	if err != nil {
		t.Fatalf("parse offset err: %v", err)
	}
	if out := FormatInstant(off); out != "2025-01-01T00:00:00.5Z" {
		t.Fatalf("expected UTC normalization, got %s", out)
	}
	if _, err := ParseInstant("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDuration_Format(t *testing.T) {
	cases := map[time.Duration]string{
		0:                             "PT0S",
		time.Hour:                     "PT1H",
		90 * time.Minute:              "PT1H30M",
		-90 * time.Minute:             "PT-1H-30M",
		1500 * time.Millisecond:       "PT1.5S",
		-500 * time.Millisecond:       "PT-0.5S",
		-1500 * time.Millisecond:      "PT-1.5S",
		25*time.Hour + 7*time.Second:  "PT25H7S",
		time.Minute + time.Nanosecond: "PT1M0.000000001S",
	}
	for d, want := range cases {
		if got := FormatDuration(d); got != want {
			t.Fatalf("FormatDuration(%v) = %s, want %s", d, got, want)
		}
		back, err := ParseDuration(want)
		if err != nil {
			t.Fatalf("ParseDuration(%s): %v", want, err)
		}
		if back != d {
			t.Fatalf("ParseDuration(%s) = %v, want %v", want, back, d)
		}
	}
}

func TestDuration_Parse(t *testing.T) {
	d, err := ParseDuration("P2DT3H")
	if err != nil || d != 51*time.Hour {
		t.Fatalf("got %v %v", d, err)
	}
	d, err = ParseDuration("-PT6H3M")
	if err != nil || d != -(6*time.Hour+3*time.Minute) {
		t.Fatalf("got %v %v", d, err)
	}
	for _, bad := range []string{"", "P", "PT", "1H", "PT1.5H", "P1Y"} {
		if _, err := ParseDuration(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	if _, err := ParseDuration("P999999D"); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestLocal_Roundtrip(t *testing.T) {
	tm, err := ParseTime("11:06")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if tm != (civil.Time{Hour: 11, Minute: 6}) {
		t.Fatalf("unexpected time %v", tm)
	}
	cases := map[civil.Time]string{
		{Hour: 11, Minute: 6}:                              "11:06",
		{Hour: 11, Minute: 6, Second: 7}:                   "11:06:07",
		{Hour: 11, Minute: 6, Second: 7, Nanosecond: 25e7}: "11:06:07.250",
		{Hour: 0, Minute: 0, Second: 0, Nanosecond: 1000}:  "00:00:00.000001",
		{Hour: 23, Minute: 59, Second: 59, Nanosecond: 1}:  "23:59:59.000000001",
	}
	for in, want := range cases {
		if got := FormatTime(in); got != want {
			t.Fatalf("FormatTime(%v) = %s, want %s", in, got, want)
		}
		back, err := ParseTime(want)
		if err != nil || back != in {
			t.Fatalf("ParseTime(%s) = %v, %v", want, back, err)
		}
	}

	dt, err := ParseDateTime("2024-04-20T11:06")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if got := FormatDateTime(dt); got != "2024-04-20T11:06" {
		t.Fatalf("unexpected %s", got)
	}
	if _, err := ParseDateTime("2024-04-20 11:06"); err == nil {
		t.Fatalf("expected error for missing T")
	}
	d, err := ParseDate("1970-01-01")
	if err != nil || FormatDate(d) != "1970-01-01" {
		t.Fatalf("date roundtrip: %v %v", d, err)
	}
}
