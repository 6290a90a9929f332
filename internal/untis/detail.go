package untis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ErrUnauthorized is returned when a bearer-authenticated detail query is
// rejected with 401. Callers drive the refresh-once policy off this value
// instead of inspecting response bodies.
var ErrUnauthorized = errors.New("bearer token rejected")

// DetailQuery describes one calendar-entry detail lookup. An empty Bearer
// selects session-cookie authentication.
type DetailQuery struct {
	ElementID    int
	ElementType  int
	Start        string // local date-time, 2006-01-02T15:04:05
	End          string
	Bearer       string
	Session      *Session
	TenantID     string
	SchoolYearID string
}

// DetailTeacher is one teacher entry of a calendar-entry detail.
type DetailTeacher struct {
	LongName    string `json:"longName"`
	ShortName   string `json:"shortName"`
	DisplayName string `json:"displayName"`
}

// CalendarDetail is the first calendar entry of a detail response.
type CalendarDetail struct {
	Teachers []DetailTeacher `json:"teachers"`
}

// CalendarEntryDetail performs one detail lookup. A 200 response without
// calendar entries is an error, so the caller's cascade moves on.
func (c *Client) CalendarEntryDetail(ctx context.Context, q DetailQuery) (*CalendarDetail, error) {
	params := url.Values{}
	params.Set("elementId", strconv.Itoa(q.ElementID))
	params.Set("elementType", strconv.Itoa(q.ElementType))
	params.Set("startDateTime", q.Start)
	params.Set("endDateTime", q.End)
	params.Set("homeworkOption", "DUE")

	detailURL := c.baseURL + "/WebUntis/api/rest/view/v2/calendar-entry/detail?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if q.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+q.Bearer)
	} else {
		if q.Session == nil {
			return nil, fmt.Errorf("detail query needs a bearer token or a session")
		}
		req.Header.Set("Cookie", c.sessionCookie(q.Session))
	}
	if q.TenantID != "" {
		req.Header.Set("Tenant-Id", q.TenantID)
	}
	if q.SchoolYearID != "" {
		req.Header.Set("X-Webuntis-Api-School-Year-Id", q.SchoolYearID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detail query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && q.Bearer != "" {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detail query returned status %d", resp.StatusCode)
	}

	var body struct {
		CalendarEntries []CalendarDetail `json:"calendarEntries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode detail response: %w", err)
	}
	if len(body.CalendarEntries) == 0 {
		return nil, fmt.Errorf("detail response carries no calendar entries")
	}
	return &body.CalendarEntries[0], nil
}
