package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wingettech/directory-service/internal/audit"
	"github.com/wingettech/directory-service/internal/ids"
	"github.com/wingettech/directory-service/internal/obs"
)

// Logging attaches a request id and writes one structured line per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = ids.New()
		}
		w.Header().Set("X-Request-Id", requestID)
		r = r.WithContext(audit.WithRequestID(r.Context(), requestID))

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		obs.LogEvent("info", "http_request", map[string]any{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
			"elapsed_ms": time.Since(start).Milliseconds(),
			"remote":     clientIP(r),
		})
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

const (
	// maxTrackedClients bounds the limiter registry. Client addresses come
	// from X-Forwarded-For, which callers control, so the map must not grow
	// without limit.
	maxTrackedClients = 4096
	limiterIdleAfter  = 3 * time.Minute
)

// clientLimiters is a bounded registry of per-client token buckets.
type clientLimiters struct {
	mu    sync.Mutex
	perIP map[string]*clientLimiter
	limit rate.Limit
	burst int
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(burst int, perSecond float64) *clientLimiters {
	return &clientLimiters{
		perIP: make(map[string]*clientLimiter),
		limit: rate.Limit(perSecond),
		burst: burst,
	}
}

func (c *clientLimiters) allow(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry, ok := c.perIP[ip]
	if !ok {
		if len(c.perIP) >= maxTrackedClients {
			c.evictLocked(now)
		}
		entry = &clientLimiter{lim: rate.NewLimiter(c.limit, c.burst)}
		c.perIP[ip] = entry
	}
	entry.lastSeen = now
	return entry.lim.Allow()
}

// evictLocked drops idle entries first; when everything is fresh it drops
// arbitrary entries until the registry fits, so a flood of spoofed
// addresses cannot pin memory.
func (c *clientLimiters) evictLocked(now time.Time) {
	for ip, entry := range c.perIP {
		if now.Sub(entry.lastSeen) > limiterIdleAfter {
			delete(c.perIP, ip)
		}
	}
	for ip := range c.perIP {
		if len(c.perIP) < maxTrackedClients {
			break
		}
		delete(c.perIP, ip)
	}
}

// RateLimit applies a per-client token bucket. Intended for the login
// endpoint, where it slows down online password guessing.
func RateLimit(next http.Handler, burst int, perSecond float64) http.Handler {
	limiters := newClientLimiters(burst, perSecond)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiters.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
