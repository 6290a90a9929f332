// Package calendar projects finalized day buckets into the two output
// forms: an iCal document and a cleaned JSON export. Both derive from the
// same []timetable.Day structure so the modes can never drift apart.
package calendar

import (
	"fmt"
	"log"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"timetable-ical-backend/internal/timetable"
)

// DefaultTimezone is the fixed target timezone for projected events.
const DefaultTimezone = "Europe/Vienna"

// fallbackSummary labels events whose lesson carries no subject at all.
const fallbackSummary = "Lesson"

// ICalOptions configures the iCal projection.
type ICalOptions struct {
	// Name becomes the calendar's display name. Empty means "Timetable".
	Name string
	// Timezone is the IANA zone for event times. Empty means DefaultTimezone.
	Timezone string
}

// BuildICal serializes the day buckets into an iCal document. Cancelled
// lessons and free periods are skipped; a lesson with malformed date or
// time fields skips only that one event.
func BuildICal(days []timetable.Day, opts ICalOptions) (string, error) {
	name := opts.Name
	if name == "" {
		name = "Timetable"
	}
	tz := opts.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//timetable-ical-backend//EN")
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(tz)

	now := time.Now().UTC()
	for _, day := range days {
		for _, entry := range day.Entries {
			if entry.IsFreePeriod() {
				continue
			}
			l := entry.Lesson
			if l.CellState == timetable.CellStateCancelled {
				continue
			}

			start, end, err := eventTimes(l, loc)
			if err != nil {
				log.Printf("skipping event for lesson %d: %v", l.ID, err)
				continue
			}

			ev := cal.AddEvent(fmt.Sprintf("period-%d@timetable-ical-backend", l.ID))
			ev.SetDtStampTime(now)
			ev.SetStartAt(start)
			ev.SetEndAt(end)
			ev.SetSummary(summaryFor(l))
			if desc := descriptionFor(l); desc != "" {
				ev.SetDescription(desc)
			}
			if l.Room != "" {
				ev.SetLocation(l.Room)
			}
			if l.Color != "" {
				ev.SetColor(l.Color)
			}
		}
	}

	return cal.Serialize(), nil
}

// eventTimes builds the event window from the lesson's dd.mm.yyyy date and
// HH:mm times in the target timezone.
func eventTimes(l *timetable.Lesson, loc *time.Location) (start, end time.Time, err error) {
	start, err = time.ParseInLocation("02.01.2006 15:04", l.Date+" "+l.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("malformed start: %w", err)
	}
	end, err = time.ParseInLocation("02.01.2006 15:04", l.Date+" "+l.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("malformed end: %w", err)
	}
	return start, end, nil
}

// summaryFor falls back through the subject fields so an event always has
// a usable title.
func summaryFor(l *timetable.Lesson) string {
	switch {
	case l.SubjectShort != "":
		return l.SubjectShort
	case l.SubjectLong != "":
		return l.SubjectLong
	case l.PeriodText != "":
		return l.PeriodText
	default:
		return fallbackSummary
	}
}

// descriptionFor joins the available optional fields, omitting absent ones.
func descriptionFor(l *timetable.Lesson) string {
	var parts []string
	if l.SubjectLong != "" {
		parts = append(parts, l.SubjectLong)
	}
	if l.Room != "" {
		parts = append(parts, "Room: "+l.Room)
	}
	if l.TeacherName != "" {
		parts = append(parts, "Teacher: "+l.TeacherName)
	}
	return strings.Join(parts, ", ")
}
