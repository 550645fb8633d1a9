package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	compactRe = regexp.MustCompile(`^(\d+)([mhd])$`)
	wordedRe  = regexp.MustCompile(`^(\d+)\s*(m|min|mins|minute|minutes|h|hr|hrs|hour|hours|d|day|days)$`)
	clockRe   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// ParseWhen resolves a compact time expression ("10m", "2h", "1d", "14:30",
// "45 minutes", "tomorrow") into an absolute time relative to now. A clock
// time already past today rolls over to tomorrow.
func ParseWhen(expr string, now time.Time) (time.Time, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}

	if expr == "tomorrow" {
		return now.Add(24 * time.Hour), nil
	}

	if m := compactRe.FindStringSubmatch(expr); m != nil {
		return now.Add(unitDuration(m[1], m[2])), nil
	}

	if m := wordedRe.FindStringSubmatch(expr); m != nil {
		return now.Add(unitDuration(m[1], m[2][:1])), nil
	}

	if m := clockRe.FindStringSubmatch(expr); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, fmt.Errorf("invalid clock time %q", expr)
		}
		at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !at.After(now) {
			at = at.Add(24 * time.Hour)
		}
		return at, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized time expression %q", expr)
}

func unitDuration(amount, unit string) time.Duration {
	n, _ := strconv.Atoi(amount)
	switch unit {
	case "h":
		return time.Duration(n) * time.Hour
	case "d":
		return time.Duration(n) * 24 * time.Hour
	default:
		return time.Duration(n) * time.Minute
	}
}
