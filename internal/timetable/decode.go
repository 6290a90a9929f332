package timetable

import (
	"timetable-ical-backend/internal/untis"
)

// Decode converts the raw weekly periods into lessons, resolving element
// references against the payload's element list. It emits exactly one
// lesson per period, preserving input order. A missing or dangling element
// reference degrades to an empty string, never an error.
func Decode(periods []untis.RawPeriod, elements []untis.RawElement) []Lesson {
	byType := make(map[int]map[int]untis.RawElement)
	for _, el := range elements {
		m, ok := byType[el.Type]
		if !ok {
			m = make(map[int]untis.RawElement)
			byType[el.Type] = m
		}
		m[el.ID] = el
	}

	lessons := make([]Lesson, 0, len(periods))
	for _, p := range periods {
		teacher, _ := lookupElement(byType, p, untis.ElementTypeTeacher)
		room, _ := lookupElement(byType, p, untis.ElementTypeRoom)
		subjShort, subjLong := lookupElement(byType, p, untis.ElementTypeLesson)

		periodText := ""
		if p.HasPeriodText {
			periodText = p.PeriodText
		}

		lessons = append(lessons, Lesson{
			ID:           p.ID,
			LessonID:     p.LessonID,
			PeriodText:   periodText,
			Date:         FormatDate(p.Date),
			StartTime:    FormatTime(p.StartTime),
			EndTime:      FormatTime(p.EndTime),
			CellState:    p.CellState,
			TeacherName:  teacher,
			Room:         room,
			SubjectShort: subjShort,
			SubjectLong:  titleCaseWords(subjLong),
			Color:        ColorByCellState(p.CellState),
		})
	}
	return lessons
}

// lookupElement scans the period's element references for the first entry of
// the wanted type and resolves its name and long name.
func lookupElement(byType map[int]map[int]untis.RawElement, p untis.RawPeriod, typ int) (name, longName string) {
	for _, ref := range p.Elements {
		if ref.Type != typ {
			continue
		}
		if el, ok := byType[typ][ref.ID]; ok {
			return el.Name, el.LongName
		}
		return "", ""
	}
	return "", ""
}
