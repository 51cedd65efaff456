// Package calendar converts timestamp intervals into elapsed business
// hours. Business days are Monday through Friday and count as full
// 24-hour blocks; weekends contribute nothing no matter how much
// wall-clock time falls inside them.
package calendar

import "time"

// BusinessHours returns the business hours elapsed in [start, end).
// Returns 0 when start >= end. Timestamps are used as given; callers must
// pass comparable instants (e.g. both UTC).
func BusinessHours(start, end time.Time) float64 {
	if !start.Before(end) {
		return 0
	}

	startDay := dayStart(start)
	endDay := dayStart(end)

	if startDay.Equal(endDay) {
		if !isBusinessDay(start) {
			return 0
		}
		return end.Sub(start).Hours()
	}

	var hours float64

	// Partial first day, from start to its midnight boundary.
	if isBusinessDay(start) {
		hours += startDay.AddDate(0, 0, 1).Sub(start).Hours()
	}

	// Whole days strictly between the first and last day.
	for d := startDay.AddDate(0, 0, 1); d.Before(endDay); d = d.AddDate(0, 0, 1) {
		if isBusinessDay(d) {
			hours += 24
		}
	}

	// Partial last day, from its midnight to end.
	if isBusinessDay(end) {
		hours += end.Sub(endDay).Hours()
	}

	return hours
}

func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
