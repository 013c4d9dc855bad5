package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 15 * time.Minute
)

// RedisRateLimiter counts requests per IP in a fixed Redis window and blocks
// IPs that overrun it. Redis errors let the request through.
type RedisRateLimiter struct {
	rdb         *redis.Client
	clientIP    func(*http.Request) string
	maxRequests int
	window      time.Duration
	blockFor    time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, clientIP func(*http.Request) string) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:         rdb,
		clientIP:    clientIP,
		maxRequests: RateLimitMaxRequests,
		window:      RateLimitWindow,
		blockFor:    BlockedIPDuration,
	}
}

func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.rdb == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		ip := l.clientIP(r)

		blockedKey := BlockedIPKeyPrefix + ip
		if n, err := l.rdb.Exists(ctx, blockedKey).Result(); err == nil && n > 0 {
			writeError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		key := RateLimitKeyPrefix + ip
		n, err := l.rdb.Incr(ctx, key).Result()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if n == 1 {
			l.rdb.Expire(ctx, key, l.window)
		}
		count := int(n)

		if count > l.maxRequests {
			l.rdb.Set(ctx, blockedKey, "1", l.blockFor)
			w.Header().Set("Retry-After", strconv.Itoa(int(l.blockFor.Seconds())))
			writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Rate limit exceeded. Try again in %d minutes.", int(l.blockFor.Minutes())))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.maxRequests-count))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(l.window).Unix(), 10))
		next.ServeHTTP(w, r)
	})
}
