package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/zcreens-service/internal/ratelimit"
	"github.com/princekumarofficial/zcreens-service/internal/utils/response"
)

const (
	ActionUploads = "uploads"
	ActionResolve = "resolve"
)

// SubjectFunc names who a request is rate limited as.
type SubjectFunc func(r *http.Request) (string, bool)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.TokenBucket
}

// NewRateLimitConfig sets up per-minute limits: uploads per account and
// code resolves per client address.
func NewRateLimitConfig(redisClient *redis.Client, uploadsPerMinute, resolvesPerMinute int64) *RateLimitConfig {
	return &RateLimitConfig{
		limiters: map[string]*ratelimit.TokenBucket{
			ActionUploads: ratelimit.NewTokenBucket(redisClient, uploadsPerMinute, uploadsPerMinute),
			ActionResolve: ratelimit.NewTokenBucket(redisClient, resolvesPerMinute, resolvesPerMinute),
		},
	}
}

// ByAccount limits authenticated requests per account. Auth must run first.
func ByAccount(r *http.Request) (string, bool) {
	return GetUserIDFromContext(r.Context())
}

// ByClientIP limits requests per client address, honouring the first
// X-Forwarded-For hop.
func ByClientIP(r *http.Request) (string, bool) {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip, true
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr, r.RemoteAddr != ""
	}
	return host, true
}

// RateLimitMiddleware enforces the limiter for action. A nil config lets
// everything through, which is how the service runs without Redis.
func (rlc *RateLimitConfig) RateLimitMiddleware(action string, subject SubjectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rlc == nil {
			return next
		}
		limiter, exists := rlc.limiters[action]
		if !exists {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := subject(r)
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			allowed, err := limiter.Allow(r.Context(), who, action)
			if err != nil {
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					fmt.Errorf("rate limit check failed: %w", err)))
				return
			}

			remaining, _ := limiter.GetRemaining(r.Context(), who, action)
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limiter.Capacity(), 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(limiter.Window().Seconds())))

			if !allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
					errors.New("rate limit exceeded")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
