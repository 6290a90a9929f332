package calendar

import (
	"strings"
	"time"

	"timetable-ical-backend/internal/timetable"
)

// CleanDocument is the cleaned JSON output form.
type CleanDocument struct {
	GeneratedAt time.Time  `json:"generatedAt"`
	Days        []CleanDay `json:"days"`
}

// CleanDay is one day of the cleaned export, with free periods split out
// of the lesson list.
type CleanDay struct {
	Date        string            `json:"date"` // ISO yyyy-mm-dd
	Lessons     []CleanLesson     `json:"lessons"`
	FreePeriods []CleanFreePeriod `json:"freePeriods"`
}

// CleanLesson is the trimmed lesson shape of the cleaned export. Cancelled
// lessons are retained here, flagged, for audit purposes; the iCal
// projection drops them.
type CleanLesson struct {
	ID          int    `json:"id"`
	LessonID    int    `json:"lessonId,omitempty"`
	Subject     string `json:"subject,omitempty"`
	SubjectLong string `json:"subject_long,omitempty"`
	Teacher     string `json:"teacher,omitempty"`
	Room        string `json:"room,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
	State       string `json:"state"`
	PeriodText  string `json:"periodText,omitempty"`
	Color       string `json:"color,omitempty"`
	Cancelled   bool   `json:"cancelled,omitempty"`
}

// CleanFreePeriod is one synthesized gap of the cleaned export.
type CleanFreePeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BuildClean converts the day buckets into the cleaned JSON document. The
// input ordering is preserved; days are expected to arrive chronologically
// sorted from the grouping stage.
func BuildClean(days []timetable.Day, generatedAt time.Time) *CleanDocument {
	doc := &CleanDocument{
		GeneratedAt: generatedAt,
		Days:        make([]CleanDay, 0, len(days)),
	}

	for _, day := range days {
		cd := CleanDay{
			Date:        isoDate(day.Date),
			Lessons:     []CleanLesson{},
			FreePeriods: []CleanFreePeriod{},
		}
		for _, entry := range day.Entries {
			if entry.Free != nil {
				cd.FreePeriods = append(cd.FreePeriods, CleanFreePeriod{
					Start: entry.Free.StartTime,
					End:   entry.Free.EndTime,
				})
				continue
			}
			l := entry.Lesson
			cd.Lessons = append(cd.Lessons, CleanLesson{
				ID:          l.ID,
				LessonID:    l.LessonID,
				Subject:     l.SubjectShort,
				SubjectLong: l.SubjectLong,
				Teacher:     l.TeacherName,
				Room:        l.Room,
				Start:       l.StartTime,
				End:         l.EndTime,
				State:       l.CellState,
				PeriodText:  l.PeriodText,
				Color:       l.Color,
				Cancelled:   l.CellState == timetable.CellStateCancelled,
			})
		}
		doc.Days = append(doc.Days, cd)
	}
	return doc
}

// isoDate flips dd.mm.yyyy into yyyy-mm-dd. Malformed keys pass through
// unchanged rather than dropping the day.
func isoDate(dotted string) string {
	parts := strings.Split(dotted, ".")
	if len(parts) != 3 {
		return dotted
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}
