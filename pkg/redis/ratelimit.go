package redis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimitExceeded is returned when the rate limit is exceeded
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimiter provides fixed-window rate limiting using Redis. This guards
// the API surface per member; it is unrelated to the free-request quota,
// which is a domain rule spent inside the store transaction.
type RateLimiter struct {
	client    *Client
	keyPrefix string
	limit     int64
	window    time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit calls per window.
func NewRateLimiter(client *Client, keyPrefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     int64(limit),
		window:    window,
	}
}

// Allow records one call for key and reports whether it is within the limit.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("%s:%s:%d", r.keyPrefix, key, time.Now().Unix()/int64(r.window.Seconds()))

	count, err := r.client.Incr(ctx, windowKey)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, windowKey, r.window); err != nil {
			return false, err
		}
	}

	return count <= r.limit, nil
}
