package timetable

// CellStateCancelled marks a lesson that was cancelled upstream. Cancelled
// lessons never reach the calendar projection.
const CellStateCancelled = "CANCEL"

// Lesson is one decoded timetable slot. TeacherName is the only field
// mutated after construction (by the enrichment pass); everything else is
// read-only once decoded.
type Lesson struct {
	ID           int    `json:"id"`
	LessonID     int    `json:"lessonId,omitempty"`
	PeriodText   string `json:"periodText,omitempty"`
	Date         string `json:"date"`      // dd.mm.yyyy
	StartTime    string `json:"startTime"` // HH:mm, zero-padded
	EndTime      string `json:"endTime"`
	CellState    string `json:"cellState"`
	TeacherName  string `json:"teacherName"`
	Room         string `json:"room"`
	SubjectShort string `json:"subject_short"`
	SubjectLong  string `json:"subject_long"`
	Color        string `json:"color,omitempty"`
}

// FreePeriod is a synthesized gap between two lessons of the same day. It is
// never persisted and never mutated.
type FreePeriod struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Entry is one slot of a day bucket: either a lesson or a free period.
type Entry struct {
	Lesson *Lesson
	Free   *FreePeriod
}

// IsFreePeriod reports whether the entry is a synthesized free period.
func (e Entry) IsFreePeriod() bool { return e.Free != nil }

// Start returns the entry's start time (HH:mm).
func (e Entry) Start() string {
	if e.Free != nil {
		return e.Free.StartTime
	}
	return e.Lesson.StartTime
}

// End returns the entry's end time (HH:mm).
func (e Entry) End() string {
	if e.Free != nil {
		return e.Free.EndTime
	}
	return e.Lesson.EndTime
}

// Day is an ordered bucket of entries sharing one date. Entries are sorted
// ascending by start time, free periods interleaved at their position.
type Day struct {
	Date    string
	Entries []Entry
}

// Flatten returns the lessons of the given days in iteration order,
// dropping free periods.
func Flatten(days []Day) []Lesson {
	var out []Lesson
	for _, day := range days {
		for _, e := range day.Entries {
			if e.Lesson != nil {
				out = append(out, *e.Lesson)
			}
		}
	}
	return out
}
