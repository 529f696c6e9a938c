package codec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationRE = regexp.MustCompile(`(?i)^([-+]?)P(?:([-+]?[0-9]+)D)?(T(?:([-+]?[0-9]+)H)?(?:([-+]?[0-9]+)M)?(?:([-+]?[0-9]+)(?:[.,]([0-9]{0,9}))?S)?)?$`)

// ErrDurationRange is returned when an ISO-8601 duration does not fit time.Duration.
var ErrDurationRange = errors.New("codec: duration out of range")

// FormatDuration renders d as an ISO-8601 duration using hours, minutes and
// seconds only, e.g. "PT0S", "PT1H30M", "PT-0.5S".
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	secs := int64(d / time.Second)
	nanos := int64(d % time.Second)
	if nanos < 0 {
		nanos += int64(time.Second)
		secs--
	}
	total := secs
	if secs < 0 && nanos > 0 {
		total++
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	rem := total % 60

	var b strings.Builder
	b.WriteString("PT")
	if hours != 0 {
		b.WriteString(itoa(hours))
		b.WriteByte('H')
	}
	if minutes != 0 {
		b.WriteString(itoa(minutes))
		b.WriteByte('M')
	}
	if rem == 0 && nanos == 0 && b.Len() > 2 {
		return b.String()
	}
	if secs < 0 && nanos > 0 && rem == 0 {
		b.WriteString("-0")
	} else {
		b.WriteString(itoa(rem))
	}
	if nanos > 0 {
		frac := nanos
		if secs < 0 {
			frac = int64(time.Second) - nanos
		}
		digits := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
		b.WriteByte('.')
		b.WriteString(digits)
	}
	b.WriteByte('S')
	return b.String()
}

// ParseDuration reads an ISO-8601 duration of the form [-]PnDTnHnMn.nS where
// each part is optional and may carry its own sign.
func ParseDuration(s string) (time.Duration, error) {
	m := durationRE.FindStringSubmatch(s)
	if m == nil || (m[2] == "" && m[3] == "") || strings.EqualFold(m[3], "T") {
		return 0, fmt.Errorf("codec: invalid ISO-8601 duration %q", s)
	}
	var total int64
	add := func(part string, unit time.Duration) error {
		if part == "" {
			return nil
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return ErrDurationRange
		}
		if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
			return ErrDurationRange
		}
		v := n * int64(unit)
		if (v > 0 && total > math.MaxInt64-v) || (v < 0 && total < math.MinInt64-v) {
			return ErrDurationRange
		}
		total += v
		return nil
	}
	if err := add(m[2], 24*time.Hour); err != nil {
		return 0, err
	}
	if err := add(m[4], time.Hour); err != nil {
		return 0, err
	}
	if err := add(m[5], time.Minute); err != nil {
		return 0, err
	}
	if err := add(m[6], time.Second); err != nil {
		return 0, err
	}
	if frac := m[7]; frac != "" {
		n, _ := strconv.ParseInt((frac + "000000000")[:9], 10, 64)
		if strings.HasPrefix(m[6], "-") {
			n = -n
		}
		if err := add(strconv.FormatInt(n, 10), time.Nanosecond); err != nil {
			return 0, err
		}
	}
	if m[1] == "-" {
		if total == math.MinInt64 {
			return 0, ErrDurationRange
		}
		total = -total
	}
	return time.Duration(total), nil
}
