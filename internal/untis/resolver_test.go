package untis

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHost(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		want      string
		expectErr bool
	}{
		{name: "bare lowercase name", input: "ajax", want: "Ajax.webuntis.com"},
		{name: "bare uppercase name", input: "AJAX", want: "Ajax.webuntis.com"},
		{name: "name with suffix", input: "ajax.webuntis.com", want: "Ajax.webuntis.com"},
		{name: "full url", input: "https://ajax.webuntis.com/WebUntis", want: "Ajax.webuntis.com"},
		{name: "url with port", input: "https://Niobe.webuntis.com:443/", want: "Niobe.webuntis.com"},
		{name: "surrounding whitespace", input: "  kreta  ", want: "Kreta.webuntis.com"},
		{name: "unknown server", input: "doesnotexist", expectErr: true},
		{name: "empty input", input: "", expectErr: true},
		{name: "suffix only", input: ".webuntis.com", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			host, err := NormalizeHost(tc.input)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.want, host)
			}
		})
	}
}

func TestNormalizeHostUnknownServerErrorType(t *testing.T) {
	_, err := NormalizeHost("doesnotexist")
	var unknown *UnknownServerError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, "doesnotexist", unknown.Name)
}

func TestResolveProbesHost(t *testing.T) {
	var probed string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = r.Method
	}))
	defer server.Close()

	r := NewResolver()
	r.baseURL = func(host string) string { return server.URL }

	host, err := r.Resolve(context.Background(), "ajax")
	assert.NoError(t, err)
	assert.Equal(t, "Ajax.webuntis.com", host)
	assert.Equal(t, http.MethodHead, probed)
}

func TestResolveUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // probe target is gone

	r := NewResolver()
	r.baseURL = func(host string) string { return url }

	_, err := r.Resolve(context.Background(), "ajax")
	var unreachable *UnreachableServerError
	assert.ErrorAs(t, err, &unreachable)
	assert.Equal(t, "Ajax.webuntis.com", unreachable.Host)
}

func TestResolveSkipsProbeForUnknownServer(t *testing.T) {
	r := NewResolver()
	r.baseURL = func(host string) string {
		t.Fatal("probe must not run for unknown servers")
		return ""
	}

	_, err := r.Resolve(context.Background(), "doesnotexist")
	assert.Error(t, err)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.True(t, isTransient(&net.DNSError{Name: "x", IsNotFound: true}))
	assert.True(t, isTransient(&net.OpError{Op: "dial", Err: assert.AnError}))
	assert.False(t, isTransient(assert.AnError))
	assert.False(t, isTransient(nil))
}
