package untis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// knownServers lists the provider's public server names (TitleCase). A user
// supplied server name must match one of these after normalization.
var knownServers = []string{
	"Achilles", "Ajax", "Antiope", "Aoide", "Arche", "Asopo", "Borys",
	"Chios", "Cissa", "Delos", "Erato", "Euterpe", "Hektor", "Hepta",
	"Herakles", "Hypate", "Ikarus", "Kadmos", "Kalliope", "Kephiso",
	"Klio", "Korfu", "Kos", "Kreta", "Melete", "Melpomene", "Mese",
	"Minos", "Naxos", "Neilo", "Nessa", "Nete", "Niobe", "Peleus",
	"Perseus", "Playground", "Poly", "Rhodos", "Samos",
	"Substitution Planning", "Tantalos", "Terpsichore", "Thalia", "Tipo",
	"Tritone", "Urania",
}

const hostSuffix = ".webuntis.com"

// UnknownServerError reports a server name that is not in the allow-list.
type UnknownServerError struct {
	Name string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("entered server does not exist: %s", e.Name)
}

// UnreachableServerError reports a known server that did not answer the
// reachability probe.
type UnreachableServerError struct {
	Host string
	Err  error
}

func (e *UnreachableServerError) Error() string {
	return fmt.Sprintf("could not connect to server %s: %v", e.Host, e.Err)
}

func (e *UnreachableServerError) Unwrap() error { return e.Err }

// NormalizeHost maps user input (bare name, full URL, or name with the
// provider suffix) to a fully-qualified host. It does not touch the network.
func NormalizeHost(input string) (string, error) {
	host := strings.TrimSpace(input)
	if host == "" {
		return "", errors.New("server name is empty")
	}

	lower := strings.ToLower(host)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		u, err := url.Parse(host)
		if err != nil || u.Hostname() == "" {
			return "", fmt.Errorf("invalid server name: %q", input)
		}
		host = u.Hostname()
		lower = strings.ToLower(host)
	}

	lower = strings.TrimSuffix(lower, hostSuffix)
	if lower == "" {
		return "", fmt.Errorf("invalid server name: %q", input)
	}

	// TitleCase for case-insensitive matching against the allow-list.
	formatted := strings.ToUpper(lower[:1]) + lower[1:]
	for _, s := range knownServers {
		if s == formatted {
			return formatted + hostSuffix, nil
		}
	}
	return "", &UnknownServerError{Name: host}
}

// Resolver validates server names and probes the resulting host.
type Resolver struct {
	client  *http.Client
	baseURL func(host string) string
}

// NewResolver creates a resolver with a bounded probe timeout.
func NewResolver() *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: 10 * time.Second},
		baseURL: func(host string) string {
			return "https://" + host + "/"
		},
	}
}

// Resolve normalizes input and performs a single reachability probe against
// the candidate host. No retry happens at this layer.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	host, err := NormalizeHost(input)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.baseURL(host), nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", &UnreachableServerError{Host: host, Err: err}
	}
	resp.Body.Close()

	return host, nil
}

// Validate resolves input the way Resolve does, but retries the probe
// exactly once when the failure classifies as transient (timeout,
// connection reset, DNS).
func (r *Resolver) Validate(ctx context.Context, input string) (string, error) {
	host, err := r.Resolve(ctx, input)
	if err == nil {
		return host, nil
	}
	var unreachable *UnreachableServerError
	if errors.As(err, &unreachable) && isTransient(unreachable.Err) {
		return r.Resolve(ctx, input)
	}
	return "", err
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
