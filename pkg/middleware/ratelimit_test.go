package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stylecat/ratelimit/pkg/limiter"
)

func newTestLimiter(t *testing.T, maxRequests int) *limiter.Limiter {
	t.Helper()
	t.Setenv(limiter.RedisURLEnv, "")
	l, err := limiter.New(limiter.Config{Interval: time.Minute, MaxRequests: maxRequests})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { l.Disconnect() })
	return l
}

func doRequest(handler http.Handler, ip string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/extract", nil)
	r.Header.Set("X-Forwarded-For", ip)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func TestRateLimit_AllowedRequestsCarryHeaders(t *testing.T) {
	l := newTestLimiter(t, 3)
	handler := RateLimit(l, "extract")(okHandler())

	w := doRequest(handler, "1.2.3.4")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Errorf("X-RateLimit-Limit = %q, want 3", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Errorf("X-RateLimit-Remaining = %q, want 2", got)
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset missing")
	}
}

func TestRateLimit_SaturatedRequestsGet429(t *testing.T) {
	l := newTestLimiter(t, 2)
	handler := RateLimit(l, "extract")(okHandler())

	doRequest(handler, "1.2.3.4")
	doRequest(handler, "1.2.3.4")

	w := doRequest(handler, "1.2.3.4")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Errorf("expected Retry-After >= 1 second, got %q", w.Header().Get("Retry-After"))
	}

	// a different client is unaffected
	if w := doRequest(handler, "5.6.7.8"); w.Code != http.StatusOK {
		t.Errorf("expected 200 for a different IP, got %d", w.Code)
	}
}

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	handler := RateLimit(nil, "extract")(okHandler())
	if w := doRequest(handler, "1.2.3.4"); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
