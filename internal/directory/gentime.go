package directory

import (
	"strconv"
	"strings"
	"time"
)

// ParseGeneralizedTime parses the directory's generalized-time formats,
// yyyyMMddHHmmssZ and yyyyMMddHHmmss.fZ with an optional fractional-seconds
// component, interpreted as UTC. The second return value is false for any
// other shape.
func ParseGeneralizedTime(raw string) (time.Time, bool) {
	if !strings.HasSuffix(raw, "Z") {
		return time.Time{}, false
	}
	v := strings.TrimSuffix(raw, "Z")

	seconds, frac, hasFrac := strings.Cut(v, ".")
	t, err := time.ParseInLocation("20060102150405", seconds, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	if !hasFrac {
		return t, true
	}
	if frac == "" {
		return time.Time{}, false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}
	digits := frac
	if len(digits) > 9 {
		digits = digits[:9]
	}
	for len(digits) < 9 {
		digits += "0"
	}
	nanos, err := strconv.Atoi(digits)
	if err != nil {
		return time.Time{}, false
	}
	return t.Add(time.Duration(nanos) * time.Nanosecond), true
}
