package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.agrowtify.id).
// allowedHost should be the bare hostname without scheme or port.
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
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// ipLimiterStore hands out one token bucket per client IP and forgets idle ones.
type ipLimiterStore struct {
	limit rate.Limit
	burst int

	mu          sync.Mutex
	entries     map[string]*limiterEntry
	cleanupOnce sync.Once
}

func newIPLimiterStore(limit rate.Limit, burst int) *ipLimiterStore {
	return &ipLimiterStore{limit: limit, burst: burst, entries: make(map[string]*limiterEntry)}
}

func (s *ipLimiterStore) get(ip string) *rate.Limiter {
	s.cleanupOnce.Do(func() { go s.cleanupLoop() })

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (s *ipLimiterStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ip, e := range s.entries {
		if now.Sub(e.lastUse) > limiterTTL {
			delete(s.entries, ip)
		}
	}
}

func (s *ipLimiterStore) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for now := range ticker.C {
		s.sweep(now)
	}
}

const (
	globalRateLimitRPS    = 5
	globalRateLimitBurst  = 20
	loginRateLimitEvery   = 5 * time.Second
	loginRateLimitBurst   = 2
	submitRateLimitEvery  = 10 * time.Second
	submitRateLimitBurst  = 3
	loginPath             = "/api/auth/login"
	journalSubmissionPath = "/api/agrocare/journal/entries"
)

// IPRateLimits holds the per-IP token buckets of the production stack.
type IPRateLimits struct {
	clientIP func(*http.Request) string
	global   *ipLimiterStore
	login    *ipLimiterStore
	submit   *ipLimiterStore
}

func NewIPRateLimits(clientIP func(*http.Request) string) *IPRateLimits {
	return &IPRateLimits{
		clientIP: clientIP,
		global:   newIPLimiterStore(rate.Limit(globalRateLimitRPS), globalRateLimitBurst),
		login:    newIPLimiterStore(rate.Every(loginRateLimitEvery), loginRateLimitBurst),
		submit:   newIPLimiterStore(rate.Every(submitRateLimitEvery), submitRateLimitBurst),
	}
}

// Global limits each IP to 5 req/s, burst 20.
func (l *IPRateLimits) Global(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.global.get(l.clientIP(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login applies a stricter limit to the sign-in route only. Use after Global.
func (l *IPRateLimits) Login(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != loginPath {
			next.ServeHTTP(w, r)
			return
		}
		if !l.login.get(l.clientIP(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Submission throttles journal submissions, which carry up to 500 MB of uploads.
func (l *IPRateLimits) Submission(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != journalSubmissionPath {
			next.ServeHTTP(w, r)
			return
		}
		if !l.submit.get(l.clientIP(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many journal submissions. Please wait a moment.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → Global → Login → Submission.
func ProductionSecurity(allowedHost string, clientIP func(*http.Request) string) []func(http.Handler) http.Handler {
	limits := NewIPRateLimits(clientIP)
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		limits.Global,
		limits.Login,
		limits.Submission,
	}
}
