package timetable

// FreePeriodThreshold is the minimum gap, in minutes, that counts as a free
// period. Shorter gaps are normal between-class transitions and are ignored.
const FreePeriodThreshold = 15

// InsertFreePeriods walks each day's sorted entries and inserts a synthetic
// free period into every gap of at least FreePeriodThreshold minutes,
// spanning exactly the gap. Nothing is inserted before a day's first entry
// or after its last.
func InsertFreePeriods(days []Day) []Day {
	out := make([]Day, 0, len(days))
	for _, day := range days {
		entries := make([]Entry, 0, len(day.Entries))
		prevEnd := -1

		for _, e := range day.Entries {
			start, ok := minutesOfDay(e.Start())
			if ok && prevEnd >= 0 && start-prevEnd >= FreePeriodThreshold {
				entries = append(entries, Entry{Free: &FreePeriod{
					Date:      day.Date,
					StartTime: timeOfDay(prevEnd),
					EndTime:   timeOfDay(start),
				}})
			}
			entries = append(entries, e)
			if end, ok := minutesOfDay(e.End()); ok {
				prevEnd = end
			}
		}
		out = append(out, Day{Date: day.Date, Entries: entries})
	}
	return out
}
