package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWindow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerWindow: 2, Window: time.Minute, MaxClients: 10})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third request should be rejected")
	}
	if !rl.Allow("b") {
		t.Fatalf("other clients are independent")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatalf("new window should reset the count")
	}
	if rl.Rejected() != 1 {
		t.Fatalf("Rejected() = %d, want 1", rl.Rejected())
	}
	if rl.ActiveClients() != 2 {
		t.Fatalf("ActiveClients() = %d, want 2", rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerWindow: 1, Window: time.Minute})
	h := rl.Middleware(func(*http.Request) string { return "client" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After=%q", rr.Header().Get("Retry-After"))
	}
}
