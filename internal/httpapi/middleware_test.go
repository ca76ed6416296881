package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitBurstThenReject(t *testing.T) {
	h := RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), 3, 0.01)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestRateLimitIsPerClient(t *testing.T) {
	limiters := newClientLimiters(1, 0.01)

	if !limiters.allow("198.51.100.1") {
		t.Fatal("first request rejected")
	}
	if limiters.allow("198.51.100.1") {
		t.Fatal("second request from the same client passed")
	}
	if !limiters.allow("198.51.100.2") {
		t.Fatal("different client was throttled")
	}
}

// A flood of distinct client addresses must not grow the registry without
// bound; addresses arrive via X-Forwarded-For and are caller-controlled.
func TestRateLimitRegistryStaysBounded(t *testing.T) {
	limiters := newClientLimiters(1, 0.01)

	for i := 0; i < maxTrackedClients+500; i++ {
		limiters.allow(fmt.Sprintf("10.%d.%d.%d", i>>16&0xff, i>>8&0xff, i&0xff))
	}

	limiters.mu.Lock()
	size := len(limiters.perIP)
	limiters.mu.Unlock()
	if size > maxTrackedClients {
		t.Fatalf("registry size = %d, want <= %d", size, maxTrackedClients)
	}
}

func TestRateLimitEvictsIdleClients(t *testing.T) {
	limiters := newClientLimiters(1, 0.01)

	limiters.allow("198.51.100.1")
	limiters.mu.Lock()
	limiters.perIP["198.51.100.1"].lastSeen = time.Now().Add(-2 * limiterIdleAfter)
	limiters.evictLocked(time.Now())
	_, stillTracked := limiters.perIP["198.51.100.1"]
	limiters.mu.Unlock()

	if stillTracked {
		t.Fatal("idle client was not evicted")
	}
}
