// Package schoolyear holds the calendar math for school year boundaries:
// the year runs from the first Monday of September to July 7.
package schoolyear

import (
	"math"
	"time"
)

// StartOfYear returns the first Monday of September of the given year.
func StartOfYear(year int, loc *time.Location) time.Time {
	first := time.Date(year, time.September, 1, 0, 0, 0, 0, loc)
	offset := (8 - int(first.Weekday())) % 7
	return first.AddDate(0, 0, offset)
}

// EndOfYear returns the end of the school year containing ref: July 7 of
// the following calendar year when ref falls in September or later,
// otherwise July 7 of ref's own year.
func EndOfYear(ref time.Time) time.Time {
	year := ref.Year()
	if ref.Month() >= time.September {
		year++
	}
	return time.Date(year, time.July, 7, 0, 0, 0, 0, ref.Location())
}

// NextStart returns the upcoming school year start relative to ref.
func NextStart(ref time.Time) time.Time {
	thisStart := StartOfYear(ref.Year(), ref.Location())
	if ref.Before(thisStart) {
		return thisStart
	}
	return StartOfYear(ref.Year()+1, ref.Location())
}

// IsSummerBreak reports whether date falls between the end of one school
// year (July 7) and the start of the next (first Monday of September).
func IsSummerBreak(date time.Time) bool {
	summerStart := time.Date(date.Year(), time.July, 7, 0, 0, 0, 0, date.Location())
	nextStart := StartOfYear(date.Year(), date.Location())
	return !date.Before(summerStart) && date.Before(nextStart)
}

// RemainingWeeks counts the weeks (rounded up) from start until the end of
// the current school year. Returns 0 when start is already past the end.
func RemainingWeeks(start time.Time) int {
	end := EndOfYear(start)
	if !start.Before(end) {
		return 0
	}
	days := end.Sub(start).Hours() / 24
	return int(math.Ceil(days / 7))
}
