// Package timeparse converts natural-language and structured time ranges
// into concrete query windows.
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativePattern = regexp.MustCompile(`^last\s+(\d+)\s+(minute|hour|day|week)s?$`)

// datetime layouts accepted on either side of an "A to B" range.
var datetimeLayouts = []string{
	"2006-01-02t15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseRange parses a time range expression into (start, end), both UTC.
//
// Supported forms:
//   - "last N minutes/hours/days/weeks"
//   - "since yesterday", "since today"
//   - "<datetime> to <datetime>" with date or date-time on each side
func ParseRange(value string) (time.Time, time.Time, error) {
	return ParseRangeAt(value, time.Now().UTC())
}

// ParseRangeAt is ParseRange with an explicit reference time for "now".
func ParseRangeAt(value string, now time.Time) (time.Time, time.Time, error) {
	expr := strings.ToLower(strings.TrimSpace(value))
	now = now.UTC()

	if m := relativePattern.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse range quantity: %w", err)
		}
		var d time.Duration
		switch m[2] {
		case "minute":
			d = time.Duration(n) * time.Minute
		case "hour":
			d = time.Duration(n) * time.Hour
		case "day":
			d = time.Duration(n) * 24 * time.Hour
		case "week":
			d = time.Duration(n) * 7 * 24 * time.Hour
		}
		return now.Add(-d), now, nil
	}

	if strings.Contains(expr, "since yesterday") {
		y := now.AddDate(0, 0, -1)
		start := time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
		return start, now, nil
	}

	if strings.Contains(expr, "since today") {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return start, now, nil
	}

	if strings.Contains(expr, " to ") {
		parts := strings.SplitN(expr, " to ", 2)
		start, err := parseDatetime(strings.TrimSpace(parts[0]))
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := parseDatetime(strings.TrimSpace(parts[1]))
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}

	return time.Time{}, time.Time{}, fmt.Errorf(
		"cannot parse time range %q: supported formats are 'last N minutes/hours/days/weeks', "+
			"'since yesterday', 'since today', or '<datetime> to <datetime>'", value)
}

func parseDatetime(value string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse datetime %q", value)
}
