package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
)

func TestDoJSONRetriesServerError(t *testing.T) {
	var count int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&count, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"x"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 1)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	var out map[string]any
	if _, err := client.DoJSON(context.Background(), req, &out); err != nil {
		t.Fatalf("DoJSON failed: %v", err)
	}
	if out["ok"] != true {
		t.Fatalf("unexpected response: %#v", out)
	}
}

func TestGetJSONMapsStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		code   clierr.Code
	}{
		{http.StatusNotFound, clierr.CodeNotFound},
		{http.StatusUnauthorized, clierr.CodeAuth},
		{http.StatusTooManyRequests, clierr.CodeRateLimited},
		{http.StatusBadRequest, clierr.CodeUnsupported},
		{http.StatusBadGateway, clierr.CodeUnavailable},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := New(2*time.Second, 0)
		var out map[string]any
		_, err := client.GetJSON(context.Background(), srv.URL+"/api/v1/accounts/0.0.1", nil, &out)
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := clierr.ExitCode(err); got != int(tc.code) {
			t.Fatalf("status %d: expected code %d, got %d (%v)", tc.status, tc.code, got, err)
		}
	}
}

func TestGetJSONSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := New(2*time.Second, 0)
	var out []any
	if _, err := client.GetJSON(context.Background(), srv.URL, map[string]string{"x-api-key": "secret", "x-empty": ""}, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
}
