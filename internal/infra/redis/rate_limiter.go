package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// noExpiry is what TTL reports for a key that exists without a timeout.
const noExpiry = time.Duration(-1)

// Allow counts one hit against key. A key left without a timeout (the
// EXPIRE after the first INCR failed) is given one when the limit is hit,
// so the window always ends.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		ttl, err := r.client.TTL(ctx, key)
		if err != nil {
			return false, err
		}
		if ttl == noExpiry {
			if err := r.client.Expire(ctx, key, window); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	return true, nil
}

func UserUpdateKey(userID int64) string {
	return fmt.Sprintf("rate_limit:%d", userID)
}
