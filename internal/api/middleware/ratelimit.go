package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/metrics"
)

// RateLimiter throttles write endpoints per authenticated user with fixed
// redis windows, so limits hold across instances. With no redis client
// configured every limit is a pass-through.
type RateLimiter struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRateLimiter creates a rate limiter. client may be nil.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{client: client, logger: logger}
}

// Limit returns middleware enforcing `requests` per `window` for the named
// endpoint, keyed by the verified user. Mount after RequireAuth.
func (rl *RateLimiter) Limit(name string, requests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.client == nil {
				next.ServeHTTP(w, r)
				return
			}
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			key := fmt.Sprintf("ratelimit:%s:%s:%d", name, identity.ID, now.Unix()/int64(window.Seconds()))

			pipe := rl.client.Pipeline()
			countCmd := pipe.Incr(r.Context(), key)
			pipe.Expire(r.Context(), key, window)
			if _, err := pipe.Exec(r.Context()); err != nil {
				// Redis trouble must not take message sending down with it.
				rl.logger.Warn().Err(err).Msg("rate limit check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			count := countCmd.Val()
			remaining := requests - int(count)
			if remaining < 0 {
				remaining = 0
			}
			resetAt := now.Truncate(window).Add(window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if count > int64(requests) {
				metrics.RateLimitHits.WithLabelValues(name).Inc()
				rl.logger.Warn().
					Str("user_id", identity.ID).
					Str("endpoint", name).
					Msg("rate limit exceeded")

				w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())))
				jsonError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
