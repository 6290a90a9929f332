package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"timetable-ical-backend/config"
	"timetable-ical-backend/internal/builder"
)

// fakeProvider serves the login and weekly endpoints for a single canned
// week so handler tests run the full generation path.
func fakeProvider(weekDate string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/WebUntis/jsonrpc.do":
			json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{"sessionId": "sess-1", "personId": 123, "personType": 5},
			})
		case "/WebUntis/api/public/timetable/weekly/data":
			if r.URL.Query().Get("date") != weekDate {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"result": map[string]any{
						"data": map[string]any{
							"elements": []map[string]any{
								{"id": 2, "type": 3, "name": "MATH", "longName": "mathematics"},
							},
							"elementPeriods": map[string]any{"123": []map[string]any{
								{
									"id": 10, "date": 20241105, "startTime": 835, "endTime": 920,
									"cellState": "STANDARD",
									"elements":  []map[string]any{{"id": 2, "type": 3}},
								},
							}},
						},
					},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testRouter(providerURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{
			RateLimitPerSec: 1000,
			CacheTTL:        time.Minute,
		},
		Timetable: config.TimetableConfig{
			Timezone:     "Europe/Vienna",
			CalendarName: "Test",
			DefaultWeeks: 1,
		},
		Accounts: []config.Account{{
			ID: "mine", School: "school", Username: "u", Password: "p", BaseURL: providerURL,
		}},
	}

	services := map[string]*builder.Service{
		"mine": builder.NewService(cfg.Accounts[0], cfg),
	}
	return NewRouter(cfg, services)
}

func TestHealth(t *testing.T) {
	router := testRouter("http://unused.invalid")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestGetICalUnknownAccount(t *testing.T) {
	router := testRouter("http://unused.invalid")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ical/nobody", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown account id")
}

func TestGetICalBadParams(t *testing.T) {
	router := testRouter("http://unused.invalid")

	cases := []struct {
		name string
		url  string
	}{
		{"malformed date", "/ical/mine?date=05.09.2024"},
		{"weeks not a number", "/ical/mine?weeks=x"},
		{"weeks too large", "/ical/mine?weeks=41"},
		{"weeks zero", "/ical/mine?weeks=0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tc.url, nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetICal(t *testing.T) {
	provider := fakeProvider("2024-11-04")
	defer provider.Close()
	router := testRouter(provider.URL)

	w := httptest.NewRecorder()
	// A Wednesday snaps back to the Monday of its week.
	req, _ := http.NewRequest(http.MethodGet, "/ical/mine?date=2024-11-06", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable.ics")
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, w.Body.String(), "SUMMARY:MATH")
}

func TestGetClean(t *testing.T) {
	provider := fakeProvider("2024-11-04")
	defer provider.Close()
	router := testRouter(provider.URL)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/json/mine?date=2024-11-04", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Days []struct {
			Date    string `json:"date"`
			Lessons []struct {
				Subject string `json:"subject"`
			} `json:"lessons"`
		} `json:"days"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Len(t, doc.Days, 1)
	assert.Equal(t, "2024-11-05", doc.Days[0].Date)
	assert.Equal(t, "MATH", doc.Days[0].Lessons[0].Subject)
}

func TestFeedCaching(t *testing.T) {
	provider := fakeProvider("2024-11-04")
	defer provider.Close()
	router := testRouter(provider.URL)

	first := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ical/mine?date=2024-11-04", nil)
	router.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Feed-Cache"))

	second := httptest.NewRecorder()
	router.ServeHTTP(second, req)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Feed-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestGetICalUpstreamFailure(t *testing.T) {
	provider := fakeProvider("2024-11-04")
	defer provider.Close()
	router := testRouter(provider.URL)

	w := httptest.NewRecorder()
	// A week the provider has no data for: every week fails, but a run
	// with zero surviving weeks still serializes an empty calendar.
	req, _ := http.NewRequest(http.MethodGet, "/ical/mine?date=2024-12-02", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.NotContains(t, w.Body.String(), "BEGIN:VEVENT")
}
