package builder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timetable-ical-backend/config"
)

// upstream fakes the provider: JSON-RPC login plus the weekly data endpoint,
// with per-date canned responses.
func upstream(t *testing.T, weeks map[string][]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/WebUntis/jsonrpc.do":
			json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{"sessionId": "sess-1", "personId": 123, "personType": 5},
			})
		case "/WebUntis/api/public/timetable/weekly/data":
			periods, ok := weeks[r.URL.Query().Get("date")]
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"result": map[string]any{
						"data": map[string]any{
							"elements": []map[string]any{
								{"id": 1, "type": 2, "name": "SMI", "longName": "Smith"},
								{"id": 2, "type": 3, "name": "MATH", "longName": "mathematics"},
								{"id": 3, "type": 4, "name": "101"},
							},
							"elementPeriods": map[string]any{"123": periods},
						},
					},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func period(id, date, start, end int) map[string]any {
	return map[string]any{
		"id": id, "lessonId": id, "date": date, "startTime": start, "endTime": end,
		"cellState": "STANDARD",
		"elements": []map[string]any{
			{"id": 1, "type": 2}, {"id": 2, "type": 3}, {"id": 3, "type": 4},
		},
	}
}

func testService(baseURL string) *Service {
	cfg := &config.Config{
		Timetable:  config.TimetableConfig{CalendarName: "Test", Timezone: "Europe/Vienna", DefaultWeeks: 4},
		Enrichment: config.EnrichmentConfig{Enabled: false},
	}
	account := config.Account{
		ID: "test", School: "school", Username: "u", Password: "p", BaseURL: baseURL,
	}
	return NewService(account, cfg)
}

func TestWindowAssemblesWeeksInOrder(t *testing.T) {
	server := upstream(t, map[string][]map[string]any{
		"2024-11-04": {period(10, 20241105, 835, 920)},
		"2024-11-11": {period(11, 20241112, 835, 920)},
	})
	defer server.Close()

	s := testService(server.URL)
	start := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	days, _, err := s.Window(context.Background(), start, 2)

	assert.NoError(t, err)
	assert.Len(t, days, 2)
	assert.Equal(t, "05.11.2024", days[0].Date)
	assert.Equal(t, "12.11.2024", days[1].Date)
}

func TestWindowSkipsFailedWeek(t *testing.T) {
	// Only the first week has data; the second answers 500.
	server := upstream(t, map[string][]map[string]any{
		"2024-11-04": {period(10, 20241105, 835, 920)},
	})
	defer server.Close()

	s := testService(server.URL)
	start := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	days, _, err := s.Window(context.Background(), start, 2)

	assert.NoError(t, err)
	assert.Len(t, days, 1)
	assert.Equal(t, "05.11.2024", days[0].Date)
}

func TestWindowValidatesWeeks(t *testing.T) {
	s := testService("http://unused.invalid")
	start := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	_, _, err := s.Window(context.Background(), start, 0)
	assert.ErrorContains(t, err, "weeks must be between")

	_, _, err = s.Window(context.Background(), start, MaxWeeks+1)
	assert.ErrorContains(t, err, "weeks must be between")
}

func TestWindowShiftsOutOfSummerBreak(t *testing.T) {
	// The first Monday of September 2024 is the 2nd.
	server := upstream(t, map[string][]map[string]any{
		"2024-09-02": {period(10, 20240905, 835, 920)},
	})
	defer server.Close()

	s := testService(server.URL)
	start := time.Date(2024, time.August, 10, 0, 0, 0, 0, time.UTC)

	days, _, err := s.Window(context.Background(), start, 1)

	assert.NoError(t, err)
	assert.Len(t, days, 1)
	assert.Equal(t, "05.09.2024", days[0].Date)
}

func TestWindowClampsToRemainingWeeks(t *testing.T) {
	// Two weeks before the July 7 cutoff; a four-week request only ever
	// fetches two.
	server := upstream(t, map[string][]map[string]any{
		"2025-06-23": {period(10, 20250624, 835, 920)},
		"2025-06-30": {period(11, 20250701, 835, 920)},
	})
	defer server.Close()

	s := testService(server.URL)
	start := time.Date(2025, time.June, 23, 0, 0, 0, 0, time.UTC)

	days, _, err := s.Window(context.Background(), start, 4)

	assert.NoError(t, err)
	assert.Len(t, days, 2)
}

func TestGenerateICal(t *testing.T) {
	server := upstream(t, map[string][]map[string]any{
		"2024-11-04": {period(10, 20241105, 835, 920)},
	})
	defer server.Close()

	s := testService(server.URL)
	start := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	out, err := s.GenerateICal(context.Background(), start, 1)

	assert.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:MATH")
	assert.Contains(t, out, "LOCATION:101")
}

func TestGenerateClean(t *testing.T) {
	server := upstream(t, map[string][]map[string]any{
		"2024-11-04": {period(10, 20241105, 835, 920)},
	})
	defer server.Close()

	s := testService(server.URL)
	start := time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC)

	doc, err := s.GenerateClean(context.Background(), start, 1)

	assert.NoError(t, err)
	assert.Len(t, doc.Days, 1)
	assert.Equal(t, "2024-11-05", doc.Days[0].Date)
	assert.Equal(t, "MATH", doc.Days[0].Lessons[0].Subject)
	assert.Equal(t, "Mathematics", doc.Days[0].Lessons[0].SubjectLong)
}
