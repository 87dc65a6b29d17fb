package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/httpx"
	"github.com/AnshRaj112/solace-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerReferrerPolicy          = "Referrer-Policy"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerReferrerPolicy, "no-referrer")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.solace.care).
// allowedHost is the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				httpx.WriteError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiters hands out one token bucket per key and evicts idle ones.
type ipLimiters struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	once    sync.Once
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

func newIPLimiters(limit rate.Limit, burst int) *ipLimiters {
	return &ipLimiters{entries: make(map[string]*limiterEntry), limit: limit, burst: burst, ttl: limiterTTL}
}

func (l *ipLimiters) get(key string) *rate.Limiter {
	l.once.Do(l.startCleanup)
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (l *ipLimiters) startCleanup() {
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			l.evictIdle(time.Now())
		}
	}()
}

func (l *ipLimiters) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if now.Sub(e.lastUse) > l.ttl {
			delete(l.entries, key)
		}
	}
}

func tooManyRequests(w http.ResponseWriter, message string) {
	w.Header().Set("Retry-After", "5")
	httpx.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", message, nil)
}

// GlobalRateLimit limits each IP to 5 req/s with a burst of 20.
func GlobalRateLimit(trustProxy bool) func(http.Handler) http.Handler {
	limiters := newIPLimiters(rate.Limit(5), 20)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(clientip.FromRequest(r, trustProxy)).Allow() {
				tooManyRequests(w, "Too many requests. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRateLimit allows one sign-in or sign-up attempt per 5s per IP, burst 3.
// It is mounted on the auth routes only.
func LoginRateLimit(trustProxy bool) func(http.Handler) http.Handler {
	limiters := newIPLimiters(rate.Every(5*time.Second), 3)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && !limiters.get(clientip.FromRequest(r, trustProxy)).Allow() {
				tooManyRequests(w, "Too many login attempts. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProductionSecurity returns SecurityHeaders → HostCheck → GlobalRateLimit.
func ProductionSecurity(allowedHost string, trustProxy bool) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit(trustProxy),
	}
}
