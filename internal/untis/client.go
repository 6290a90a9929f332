package untis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "Mozilla/5.0"

// Client talks to a single provider host on behalf of one school.
type Client struct {
	baseURL string
	school  string
	client  *http.Client
}

// NewClient creates a client for an already-resolved host.
func NewClient(host, school string) *Client {
	return NewClientWithBaseURL("https://"+host, school)
}

// NewClientWithBaseURL creates a client against an explicit base URL. Used
// for self-hosted instances and tests.
func NewClientWithBaseURL(baseURL, school string) *Client {
	return &Client{
		baseURL: baseURL,
		school:  school,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// School returns the school identifier this client was created for.
func (c *Client) School() string { return c.school }

// Login authenticates against the legacy JSON-RPC endpoint and returns the
// session handle used by the weekly fetch and the cookie-based fallbacks.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body, err := json.Marshal(map[string]any{
		"id":      "id",
		"method":  "authenticate",
		"params":  map[string]string{"user": username, "password": password, "client": "client"},
		"jsonrpc": "2.0",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	loginURL := fmt.Sprintf("%s/WebUntis/jsonrpc.do?school=%s", c.baseURL, url.QueryEscape(c.school))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Result Session `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("login rejected: %s (code %d)", envelope.Error.Message, envelope.Error.Code)
	}
	if envelope.Result.SessionID == "" {
		return nil, fmt.Errorf("login returned no session")
	}
	return &envelope.Result, nil
}

// FetchWeek fetches the raw weekly timetable payload for the week containing
// date (yyyy-mm-dd).
func (c *Client) FetchWeek(ctx context.Context, sess *Session, date string) (*WeeklyPayload, error) {
	fetchURL := fmt.Sprintf(
		"%s/WebUntis/api/public/timetable/weekly/data?elementType=%d&elementId=%d&date=%s&formatId=1",
		c.baseURL, sess.PersonType, sess.PersonID, url.QueryEscape(date),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", fmt.Sprintf("JSESSIONID=%s;", sess.SessionID))
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weekly fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weekly fetch returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read weekly payload: %w", err)
	}

	var envelope struct {
		Data struct {
			Result struct {
				Data WeeklyPayload `json:"data"`
			} `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weekly payload: %w", err)
	}

	payload := envelope.Data.Result.Data
	if len(payload.ElementPeriods) == 0 {
		return nil, fmt.Errorf("weekly payload contains no periods")
	}
	return &payload, nil
}

// sessionCookie builds the cookie header expected by the REST endpoints:
// the session id plus the base64-encoded school name.
func (c *Client) sessionCookie(sess *Session) string {
	encoded := "_" + base64.StdEncoding.EncodeToString([]byte(c.school))
	return fmt.Sprintf("JSESSIONID=%s; schoolname=\"%s\";", sess.SessionID, encoded)
}
