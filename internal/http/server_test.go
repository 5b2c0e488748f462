package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
	"patrimonio/internal/middleware/ratelimit"
	"patrimonio/internal/services"
	"patrimonio/internal/sources/memory"
)

func fixtureStore() *memory.Store {
	s := memory.New()
	s.Put("2024-01.json", []byte(`{"portfolio":[{"id":"cash","title":"Cash","color":"#0a0","items":[{"name":"Wallet","source":"Bank","val":1000}]}]}`))
	s.Put("2024-02.json", []byte(`{"portfolio":[{"id":"cash","title":"Cash","color":"#0a0","items":[{"name":"Wallet","source":"Bank","val":1100}]}]}`))
	return s
}

func newTestServer(t *testing.T, store *memory.Store, ready ReadyFunc) *Server {
	t.Helper()
	months := services.NewMonthService(store, log.Nop())
	sel := services.NewSelector(context.Background(), months, time.Second, log.Nop())
	t.Cleanup(sel.Wait)
	return NewServer(":0", Options{
		Months:             months,
		Forecasts:          services.NewForecastService(store, log.Nop()),
		Selector:           sel,
		SelectLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: 3, Window: time.Minute}),
		Backend:            "memory",
		Ready:              ready,
		CORSAllowedOrigins: []string{"*"},
		Logger:             log.Nop(),
	})
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, fixtureStore(), nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	failing := newTestServer(t, fixtureStore(), func(context.Context) error { return errors.New("down") })
	rr := do(t, failing, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"backend":"memory"`) {
		t.Fatalf("readyz body missing backend: %s", rr.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, fixtureStore(), nil)
	rr := do(t, srv, http.MethodGet, "/api/months", "")
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options=%q", got)
	}
}

func TestListMonths(t *testing.T) {
	srv := newTestServer(t, fixtureStore(), nil)
	rr := do(t, srv, http.MethodGet, "/api/months", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var body monthsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Months) != 2 || body.Months[0].ID != "2024-01" || body.Months[1].Label != "February 2024" {
		t.Fatalf("unexpected months: %+v", body.Months)
	}
}

func TestMonthView(t *testing.T) {
	srv := newTestServer(t, fixtureStore(), nil)

	rr := do(t, srv, http.MethodGet, "/api/months/2024-02", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Month         string `json:"month"`
		Found         bool   `json:"found"`
		Previous      string `json:"previous"`
		HasComparison bool   `json:"hasComparison"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Month != "2024-02" || !body.Found || body.Previous != "2024-01" || !body.HasComparison {
		t.Fatalf("unexpected view: %+v", body)
	}

	rr = do(t, srv, http.MethodGet, "/api/months/2024-13", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid month status=%d, want 400", rr.Code)
	}
}

func TestMonthViewSourceErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unauthorized", fmt.Errorf("drive: %w", core.ErrUnauthorized), http.StatusBadGateway, "data source rejected credentials"},
		{"transport", errors.New("connection reset"), http.StatusBadGateway, "data source unavailable"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "data source timed out"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := fixtureStore()
			store.FailOn("2024-02.json", tc.err)
			srv := newTestServer(t, store, nil)

			rr := do(t, srv, http.MethodGet, "/api/months/2024-02", "")
			if rr.Code != tc.status {
				t.Fatalf("status=%d, want %d", rr.Code, tc.status)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tc.message {
				t.Fatalf("error=%q, want %q", body.Error, tc.message)
			}
		})
	}
}

func TestForecast(t *testing.T) {
	srv := newTestServer(t, fixtureStore(), nil)
	rr := do(t, srv, http.MethodGet, "/api/months/2024-02/forecast", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		MonthsPassed int     `json:"monthsPassed"`
		MonthYield   float64 `json:"monthYield"`
		Chain        []any   `json:"chain"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.MonthsPassed != 2 || len(body.Chain) != 2 {
		t.Fatalf("unexpected forecast: %+v", body)
	}
	if body.MonthYield < 0.0999 || body.MonthYield > 0.1001 {
		t.Fatalf("monthYield=%v, want 0.1", body.MonthYield)
	}
}

func TestSelection(t *testing.T) {
	srv := newTestServer(t, fixtureStore(), nil)

	rr := do(t, srv, http.MethodGet, "/api/selection", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("empty selection status=%d, want 404", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, "/api/selection", `{"month":"bogus"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad month status=%d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, "/api/selection", `{"month":"2024-02"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("select status=%d body=%s", rr.Code, rr.Body.String())
	}
	var accepted selectResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted.Token == "" || accepted.Month.String() != "2024-02" {
		t.Fatalf("unexpected select response: %+v", accepted)
	}

	srv.selector.Wait()
	rr = do(t, srv, http.MethodGet, "/api/selection", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("selection status=%d body=%s", rr.Code, rr.Body.String())
	}
	var sel struct {
		Token string `json:"token"`
		Ready bool   `json:"ready"`
		View  *struct {
			Found bool `json:"found"`
		} `json:"view"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &sel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sel.Token != accepted.Token || !sel.Ready || sel.View == nil || !sel.View.Found {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		remote, xff, want string
	}{
		{"203.0.113.7:5000", "198.51.100.1", "203.0.113.7"},
		{"10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"10.0.0.2:5000", "not-an-ip", "10.0.0.2"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tc.remote
		if tc.xff != "" {
			r.Header.Set("X-Forwarded-For", tc.xff)
		}
		if got := extractClientIP(r); got != tc.want {
			t.Fatalf("extractClientIP(%s, %s) = %s, want %s", tc.remote, tc.xff, got, tc.want)
		}
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	var m securityMetrics
	if detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/months", nil), &m) {
		t.Fatalf("plain request flagged")
	}
	if !detectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/months/../.env", nil), &m) {
		t.Fatalf("traversal not flagged")
	}
	if m.suspiciousRequests.Load() != 1 {
		t.Fatalf("counter=%d, want 1", m.suspiciousRequests.Load())
	}
}

func TestSelectionRateLimit(t *testing.T) {
	srv := newTestServer(t, fixtureStore(), nil)
	for i := 0; i < 3; i++ {
		if rr := do(t, srv, http.MethodPut, "/api/selection", `{"month":"2024-01"}`); rr.Code != http.StatusAccepted {
			t.Fatalf("select %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPut, "/api/selection", `{"month":"2024-01"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
}
