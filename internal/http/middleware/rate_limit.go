package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int           // Max requests per window
	Window   time.Duration // Time window duration
}

// RateLimiter throttles per client IP using a redis counter per window.
type RateLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

func NewRateLimiter(client *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(r.Context(), clientIP(r)) {
				response.RateLimit(w, "Too many requests. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Hash the key for privacy
	hasher := sha256.New()
	hasher.Write([]byte(key))
	redisKey := fmt.Sprintf("ratelimit:%x", hasher.Sum(nil))

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// Fail open: throttling is protection, not correctness.
		logger.Error("Rate limit check failed", "error", err)
		return true
	}
	if count == 1 {
		rl.client.Expire(ctx, redisKey, rl.config.Window)
	}

	return count <= int64(rl.config.Requests)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
