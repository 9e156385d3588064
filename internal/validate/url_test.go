package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

func TestValidateSyntax(t *testing.T) {
	v := New(time.Second, false)

	cases := []struct {
		name    string
		url     string
		wantErr bool
		warning bool
	}{
		{"valid https", "https://example.com/hooks", false, false},
		{"valid http warns", "http://example.com/hooks", false, true},
		{"empty", "", true, false},
		{"relative", "/hooks", true, false},
		{"bad scheme", "ftp://example.com", true, false},
		{"no host", "https://", true, false},
		{"garbage", "ht tp://bad url", true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			warning, err := v.ValidateSyntax(tc.url)
			if tc.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidURL)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.warning, warning != "")
		})
	}
}

func TestValidateSyntaxRequireHTTPS(t *testing.T) {
	v := New(time.Second, true)

	_, err := v.ValidateSyntax("http://example.com/hooks")
	assert.ErrorIs(t, err, types.ErrInvalidURL)

	_, err = v.ValidateSyntax("https://example.com/hooks")
	assert.NoError(t, err)
}

func TestValidateReachability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := New(2*time.Second, false)
	ok, msg := v.ValidateReachability(context.Background(), srv.URL)
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestValidateReachabilityFallsBackToGET(t *testing.T) {
	var sawGet bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet = r.Method == http.MethodGet
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := New(2*time.Second, false)
	ok, _ := v.ValidateReachability(context.Background(), srv.URL)
	assert.True(t, ok)
	assert.True(t, sawGet)
}

func TestValidateReachabilityUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	v := New(500*time.Millisecond, false)
	ok, msg := v.ValidateReachability(context.Background(), srv.URL)
	assert.False(t, ok)
	assert.Contains(t, msg, "unreachable")
}

// An error response still proves something answered; reachability is advisory
// and must not block saving.
func TestValidateReachabilityErrorStatusIsStillReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	v := New(2*time.Second, false)
	ok, _ := v.ValidateReachability(context.Background(), srv.URL)
	assert.True(t, ok)
}
