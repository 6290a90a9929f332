package calendar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"timetable-ical-backend/internal/timetable"
)

func day(date string, lessons ...timetable.Lesson) timetable.Day {
	d := timetable.Day{Date: date}
	for i := range lessons {
		d.Entries = append(d.Entries, timetable.Entry{Lesson: &lessons[i]})
	}
	return d
}

func TestBuildICalSkipsCancelledAndFree(t *testing.T) {
	d := day("05.09.2024",
		timetable.Lesson{ID: 1, Date: "05.09.2024", StartTime: "08:35", EndTime: "09:20", SubjectShort: "MATH", CellState: "STANDARD"},
		timetable.Lesson{ID: 2, Date: "05.09.2024", StartTime: "09:25", EndTime: "10:10", SubjectShort: "BIO", CellState: timetable.CellStateCancelled},
	)
	d.Entries = append(d.Entries, timetable.Entry{
		Free: &timetable.FreePeriod{Date: "05.09.2024", StartTime: "10:10", EndTime: "10:30"},
	})

	out, err := BuildICal([]timetable.Day{d}, ICalOptions{})
	assert.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:MATH")
	assert.NotContains(t, out, "BIO")
	assert.Contains(t, out, "UID:period-1@timetable-ical-backend")
}

func TestBuildICalEventFields(t *testing.T) {
	d := day("05.09.2024", timetable.Lesson{
		ID:           7,
		Date:         "05.09.2024",
		StartTime:    "08:35",
		EndTime:      "09:20",
		SubjectShort: "MATH",
		SubjectLong:  "Mathematics",
		TeacherName:  "Jane Smith",
		Room:         "101",
		CellState:    "STANDARD",
		Color:        "#B4F8B4",
	})

	out, err := BuildICal([]timetable.Day{d}, ICalOptions{Name: "My Timetable"})
	assert.NoError(t, err)

	assert.Contains(t, out, "X-WR-CALNAME:My Timetable")
	assert.Contains(t, out, "X-WR-TIMEZONE:Europe/Vienna")
	assert.Contains(t, out, "LOCATION:101")
	assert.Contains(t, out, "Mathematics")
	assert.Contains(t, out, "Teacher: Jane Smith")
}

func TestBuildICalSkipsMalformedEvent(t *testing.T) {
	d := day("05.09.2024",
		timetable.Lesson{ID: 1, Date: "Invalid Date", StartTime: "08:35", EndTime: "09:20", SubjectShort: "MATH", CellState: "STANDARD"},
		timetable.Lesson{ID: 2, Date: "05.09.2024", StartTime: "09:25", EndTime: "10:10", SubjectShort: "BIO", CellState: "STANDARD"},
	)

	out, err := BuildICal([]timetable.Day{d}, ICalOptions{})
	assert.NoError(t, err)

	// Only the well-formed lesson becomes an event.
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:BIO")
}

func TestBuildICalRejectsBadTimezone(t *testing.T) {
	_, err := BuildICal(nil, ICalOptions{Timezone: "Not/AZone"})
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestSummaryFor(t *testing.T) {
	cases := []struct {
		name   string
		lesson timetable.Lesson
		want   string
	}{
		{"short subject wins", timetable.Lesson{SubjectShort: "MATH", SubjectLong: "Mathematics"}, "MATH"},
		{"long subject next", timetable.Lesson{SubjectLong: "Mathematics", PeriodText: "note"}, "Mathematics"},
		{"period text next", timetable.Lesson{PeriodText: "Project day"}, "Project day"},
		{"fallback", timetable.Lesson{}, "Lesson"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, summaryFor(&tc.lesson))
		})
	}
}
