package validate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

// Validator checks candidate endpoint URLs before a configuration is saved.
type Validator struct {
	client       *http.Client
	requireHTTPS bool
}

// New builds a Validator whose reachability probes use the given timeout.
func New(probeTimeout time.Duration, requireHTTPS bool) *Validator {
	return &Validator{
		client: &http.Client{
			Timeout: probeTimeout,
		},
		requireHTTPS: requireHTTPS,
	}
}

// ValidateSyntax checks that raw is a well-formed absolute HTTP or HTTPS URL.
// A non-empty warning is returned for plain HTTP endpoints unless HTTPS is
// enforced, in which case they are rejected outright.
func (v *Validator) ValidateSyntax(raw string) (warning string, err error) {
	if raw == "" {
		return "", fmt.Errorf("%w: url is empty", types.ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: url must be absolute", types.ErrInvalidURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", types.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: url has no host", types.ErrInvalidURL)
	}

	if u.Scheme == "http" {
		if v.requireHTTPS {
			return "", fmt.Errorf("%w: https is required", types.ErrInvalidURL)
		}
		warning = "endpoint is not using https; payloads and signatures will travel in cleartext"
	}
	return warning, nil
}

// ValidateReachability performs a best-effort probe of the endpoint. A HEAD
// request is tried first and downgraded to GET for endpoints that reject HEAD.
// Any response at all counts as reachable; this never blocks saving.
func (v *Validator) ValidateReachability(ctx context.Context, raw string) (bool, string) {
	if _, err := v.ValidateSyntax(raw); err != nil {
		return false, err.Error()
	}

	resp, err := v.probe(ctx, http.MethodHead, raw)
	if err != nil {
		return false, fmt.Sprintf("endpoint unreachable: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = v.probe(ctx, http.MethodGet, raw)
		if err != nil {
			return false, fmt.Sprintf("endpoint unreachable: %v", err)
		}
		resp.Body.Close()
	}

	return true, ""
}

func (v *Validator) probe(ctx context.Context, method, raw string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, raw, nil)
	if err != nil {
		return nil, err
	}
	return v.client.Do(req)
}
