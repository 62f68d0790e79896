// Package kpi computes per-employee daily indicators from the ingested
// sources.
package kpi

import (
	"time"
)

const dayFormat = "2006-01-02"

// AllocateHours splits an activity's billed duration across the calendar days
// it spans. The first day gets start to midnight, the last day midnight to
// end, interior days the full 24 hours; each day's billed share is its
// fraction of the spanned minutes applied to the total duration. A same-day
// interval keeps the whole duration.
func AllocateHours(start, end time.Time, totalDurationHours float64) map[string]float64 {
	out := make(map[string]float64)
	if !end.After(start) {
		out[start.Format(dayFormat)] = totalDurationHours
		return out
	}

	startDay := start.Truncate(24 * time.Hour)
	endDay := end.Truncate(24 * time.Hour)
	if startDay.Equal(endDay) {
		out[start.Format(dayFormat)] = totalDurationHours
		return out
	}

	totalMinutes := end.Sub(start).Minutes()
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		segStart := day
		if segStart.Before(start) {
			segStart = start
		}
		segEnd := day.AddDate(0, 0, 1)
		if segEnd.After(end) {
			segEnd = end
		}
		minutes := segEnd.Sub(segStart).Minutes()
		if minutes <= 0 {
			continue
		}
		out[day.Format(dayFormat)] = (minutes / totalMinutes) * totalDurationHours
	}
	return out
}

// overlapHours clips [from, to) to [dayStart, dayEnd) and returns the
// overlap in hours.
func overlapHours(from, to, dayStart, dayEnd time.Time) float64 {
	if from.Before(dayStart) {
		from = dayStart
	}
	if to.After(dayEnd) {
		to = dayEnd
	}
	if !to.After(from) {
		return 0
	}
	return to.Sub(from).Hours()
}
