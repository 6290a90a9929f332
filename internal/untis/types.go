package untis

// Element types referenced by weekly timetable periods.
const (
	ElementTypeClass   = 1
	ElementTypeTeacher = 2
	ElementTypeLesson  = 3
	ElementTypeRoom    = 4
	// ElementTypeStudent only appears in REST detail queries, never in the
	// weekly payload's element list.
	ElementTypeStudent = 5
)

// RawElement is one typed reference entry (class, teacher, lesson or room)
// from the weekly timetable payload.
type RawElement struct {
	ID       int    `json:"id"`
	Type     int    `json:"type"`
	Name     string `json:"name"`
	LongName string `json:"longName"`
}

// ElementRef links a period to an element by id and type. A period carries
// at most one reference per element type.
type ElementRef struct {
	ID   int `json:"id"`
	Type int `json:"type"`
}

// RawPeriod is one scheduled time slot as delivered by the provider.
// Date is a compact yyyymmdd number, StartTime/EndTime are compact hhmm
// numbers (835 means 08:35).
type RawPeriod struct {
	ID            int          `json:"id"`
	LessonID      int          `json:"lessonId"`
	Date          int          `json:"date"`
	StartTime     int          `json:"startTime"`
	EndTime       int          `json:"endTime"`
	CellState     string       `json:"cellState"`
	HasPeriodText bool         `json:"hasPeriodText"`
	PeriodText    string       `json:"periodText"`
	Elements      []ElementRef `json:"elements"`
}

// WeeklyPayload is the raw weekly timetable data. ElementPeriods is keyed
// by the person id as a decimal string, which is how the upstream JSON
// encodes it.
type WeeklyPayload struct {
	Elements       []RawElement           `json:"elements"`
	ElementPeriods map[string][]RawPeriod `json:"elementPeriods"`
}

// Session is the authenticated session handle returned by the JSON-RPC
// login call.
type Session struct {
	SessionID  string `json:"sessionId"`
	PersonID   int    `json:"personId"`
	PersonType int    `json:"personType"`
}
