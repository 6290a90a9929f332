package timetable

import (
	"sort"
	"strings"
)

// DefaultExclusionMarker drops administrative placeholder lessons from the
// timetable entirely. Kept as a policy constant rather than environment
// configuration to preserve upstream behavior.
const DefaultExclusionMarker = "EBC"

// Group filters, buckets and orders lessons into days. Lessons whose short
// or long subject name contains the exclusion marker are dropped. Entries
// within a day are sorted by start time (lexical sort is safe because the
// time format is fixed-width zero-padded), and days are ordered by real
// calendar date, not by the lexical order of the dd.mm.yyyy key.
func Group(lessons []Lesson, exclusionMarker string) []Day {
	buckets := make(map[string][]Lesson)
	for _, l := range lessons {
		if exclusionMarker != "" &&
			(strings.Contains(l.SubjectShort, exclusionMarker) || strings.Contains(l.SubjectLong, exclusionMarker)) {
			continue
		}
		buckets[l.Date] = append(buckets[l.Date], l)
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		di, erri := parseDottedDate(dates[i])
		dj, errj := parseDottedDate(dates[j])
		if erri != nil || errj != nil {
			// Unparseable keys sort last, in string order among themselves.
			if erri == nil {
				return true
			}
			if errj == nil {
				return false
			}
			return dates[i] < dates[j]
		}
		return di.Before(dj)
	})

	days := make([]Day, 0, len(dates))
	for _, date := range dates {
		group := buckets[date]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].StartTime < group[j].StartTime
		})

		entries := make([]Entry, len(group))
		for i := range group {
			entries[i] = Entry{Lesson: &group[i]}
		}
		days = append(days, Day{Date: date, Entries: entries})
	}
	return days
}
