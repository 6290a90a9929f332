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
	"strings"
)

// BearerToken is a short-lived token for the provider's REST endpoints,
// distinct from the JSON-RPC session cookie.
type BearerToken struct {
	Token        string
	TenantID     string
	SchoolYearID string
}

// restLoginStrategy is one credential-login attempt shape. Different
// deployments expose different REST login surfaces, so acquisition walks an
// ordered list of these until one yields a token.
type restLoginStrategy struct {
	path       string
	payload    map[string]string
	withSchool bool
}

func restLoginStrategies(username, password string) []restLoginStrategy {
	paths := []string{
		"/WebUntis/api/rest/auth/login",
		"/WebUntis/api/rest/view/v1/login",
		"/WebUntis/api/rest/authenticate/user",
	}
	payloads := []map[string]string{
		{"user": username, "password": password, "client": "client"},
		{"username": username, "password": password},
	}

	var out []restLoginStrategy
	for _, p := range paths {
		for _, body := range payloads {
			out = append(out,
				restLoginStrategy{path: p, payload: body},
				restLoginStrategy{path: p, payload: body, withSchool: true},
			)
		}
	}
	return out
}

// BearerFromSession exchanges an existing JSON-RPC session for a REST bearer
// token. The endpoint answers with a raw JWT body, not a JSON wrapper.
func (c *Client) BearerFromSession(ctx context.Context, sess *Session) (*BearerToken, error) {
	if sess == nil || sess.SessionID == "" {
		return nil, fmt.Errorf("no session to exchange")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/WebUntis/api/token/new", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Cookie", c.sessionCookie(sess))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(string(raw))
	if strings.Count(token, ".") != 2 {
		return nil, fmt.Errorf("token exchange returned no JWT")
	}

	bt := &BearerToken{Token: token}
	if claims := decodeJWTClaims(token); claims != nil {
		bt.TenantID = claimString(claims, "tenant_id", "tenantId")
		bt.SchoolYearID = claimString(claims, "schoolYearId")
	}
	return bt, nil
}

// BearerFromCredentials attempts a direct credential login against the
// cascade of known endpoint and payload shapes. The first 200 response
// carrying a recognizable token wins.
func (c *Client) BearerFromCredentials(ctx context.Context, username, password string) (*BearerToken, error) {
	for _, strat := range restLoginStrategies(username, password) {
		loginURL := c.baseURL + strat.path
		if strat.withSchool {
			loginURL += "?school=" + url.QueryEscape(c.school)
		}

		body, err := json.Marshal(strat.payload)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			// Network failure on one strategy does not end the cascade.
			continue
		}
		raw, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil || resp.StatusCode != http.StatusOK {
			continue
		}

		if bt := extractBearer(raw); bt != nil {
			return bt, nil
		}
	}
	return nil, fmt.Errorf("no REST login endpoint accepted the credentials")
}

// extractBearer recognizes the token response shapes observed across
// deployments: {token}, {bearer} and {data:{token}}.
func extractBearer(raw []byte) *BearerToken {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}

	candidates := []map[string]any{body}
	if data, ok := body["data"].(map[string]any); ok {
		candidates = append(candidates, data)
	}

	for _, m := range candidates {
		token := claimString(m, "token", "bearer")
		if token == "" {
			continue
		}
		return &BearerToken{
			Token:        token,
			TenantID:     claimString(m, "tenantId", "tenant_id"),
			SchoolYearID: claimString(m, "schoolYearId", "school_year_id"),
		}
	}
	return nil
}

// SchoolYearID reads the current school year id from the app config
// endpoint. The id hides in different places depending on the deployment.
func (c *Client) SchoolYearID(ctx context.Context, sess *Session) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/WebUntis/api/app/config", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", c.sessionCookie(sess))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("app config fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("app config returned status %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	for _, path := range [][]string{
		{"data", "currentSchoolYear", "id"},
		{"currentSchoolYear", "id"},
		{"schoolYear", "id"},
	} {
		if v := digString(body, path...); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("app config carries no school year id")
}

func decodeJWTClaims(token string) map[string]any {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	return claims
}

// claimString returns the first present key as a string. Numeric values
// (school year ids are numbers in some responses) are formatted as decimals.
func claimString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return fmt.Sprintf("%.0f", t)
		}
	}
	return ""
}

func digString(m map[string]any, path ...string) string {
	cur := any(m)
	for i, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur, ok = obj[key]
		if !ok {
			return ""
		}
		if i == len(path)-1 {
			return claimString(obj, key)
		}
	}
	return ""
}
