package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The exports mix day-first local formats with ISO variants, with and
// without a time part.
var dateTimeLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"02.01.2006",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"15.04",
}

// ParseDateTime tries the known timestamp formats, then date-only formats.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseDate returns the canonical YYYY-MM-DD day string.
func ParseDate(s string) (string, error) {
	t, err := ParseDateTime(s)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

// ParseClock combines a day string with a wall-clock value ("17:30").
func ParseClock(day, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			d, err := time.Parse("2006-01-02", day)
			if err != nil {
				return time.Time{}, fmt.Errorf("bad day %q: %w", day, err)
			}
			return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	// some exports put a full timestamp in the time column
	if t, err := ParseDateTime(clock); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", clock)
}

// ParseFloat accepts both decimal comma and decimal point.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
