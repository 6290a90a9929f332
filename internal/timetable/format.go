package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatTime converts a compact hhmm number into a zero-padded HH:mm string
// (835 becomes "08:35").
func FormatTime(t int) string {
	s := fmt.Sprintf("%04d", t)
	return s[:2] + ":" + s[2:]
}

// FormatDate converts a yyyymmdd number into dd.mm.yyyy. Anything that is
// not eight digits renders as "Invalid Date" instead of failing the decode.
func FormatDate(d int) string {
	s := strconv.Itoa(d)
	if len(s) != 8 {
		return "Invalid Date"
	}
	return s[6:8] + "." + s[4:6] + "." + s[0:4]
}

// titleCaseWords lowercases the input and capitalizes the first letter of
// every space-separated word.
func titleCaseWords(s string) string {
	words := strings.Split(strings.ToLower(s), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// cellStateColors maps provider cell states to advisory display colors.
var cellStateColors = map[string]string{
	"STANDARD":     "#B4F8B4",
	"CANCEL":       "#C5C6C6",
	"SHIFT":        "#B5A0C1",
	"EXAM":         "#F5F1C1",
	"SUBSTITUTION": "#B79CC4",
}

// ColorByCellState returns the display color for a cell state, or empty for
// unknown states.
func ColorByCellState(state string) string {
	return cellStateColors[state]
}

// parseDottedDate parses a dd.mm.yyyy date string.
func parseDottedDate(s string) (time.Time, error) {
	return time.Parse("02.01.2006", s)
}

// minutesOfDay converts a HH:mm string to minutes since midnight.
func minutesOfDay(t string) (int, bool) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return h*60 + m, true
}

// timeOfDay converts minutes since midnight back to a HH:mm string.
func timeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
