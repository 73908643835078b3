package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected a generated request id in the context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response header %q does not match context id %q", got, seen)
	}
}

func TestRequestID_Preserved(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "upstream-id" {
		t.Errorf("request id = %q, want the incoming upstream-id", seen)
	}
}

func TestRequireGroups(t *testing.T) {
	tests := []struct {
		name       string
		claims     *Claims
		wantStatus int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"no matching group", &Claims{PreferredUsername: "bob", Groups: []string{"users"}}, http.StatusForbidden},
		{"matching group", &Claims{PreferredUsername: "alice", Groups: []string{"users", "realm-admins"}}, http.StatusOK},
	}

	h := RequireGroups(zap.NewNop(), "realm-admins", "platform-ops")(okHandler())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(context.WithValue(req.Context(), claimsKey{}, tt.claims))
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Limit(okHandler())

	statuses := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("requests inside the burst must pass, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("request beyond the burst must be limited, got %v", statuses)
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := rl.Limit(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("first ip first request: %d", rec.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("X-Forwarded-For", "192.0.2.7, 10.0.0.1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("a different client ip must have its own bucket, got %d", rec.Code)
	}
}
