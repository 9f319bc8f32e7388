package document

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	streamcfg "github.com/goliatone/go-streamcfg"
)

// Retention values render as compact unit strings ("30d", "12h") rather
// than Go duration syntax, matching what operators author in templates.

func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "0s"
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	default:
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
}

func parseDuration(value string) (time.Duration, error) {
	unit := time.Nanosecond
	var suffix string
	switch {
	case strings.HasSuffix(value, "ms"):
		unit, suffix = time.Millisecond, "ms"
	case strings.HasSuffix(value, "d"):
		unit, suffix = 24*time.Hour, "d"
	case strings.HasSuffix(value, "h"):
		unit, suffix = time.Hour, "h"
	case strings.HasSuffix(value, "m"):
		unit, suffix = time.Minute, "m"
	case strings.HasSuffix(value, "s"):
		unit, suffix = time.Second, "s"
	default:
		return 0, malformed(fmt.Sprintf("duration %q is missing a unit suffix", value), nil)
	}
	digits := strings.TrimSuffix(value, suffix)
	count, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, malformed(fmt.Sprintf("duration %q has an invalid count", value), err)
	}
	if count < 0 {
		return 0, malformed(fmt.Sprintf("duration %q must not be negative", value), nil)
	}
	if count > math.MaxInt64/int64(unit) {
		return 0, malformed(fmt.Sprintf("duration %q overflows", value), nil)
	}
	return time.Duration(count) * unit, nil
}

func malformed(detail string, err error) error {
	return &streamcfg.MalformedInputError{Format: "document", Detail: detail, Err: err}
}
