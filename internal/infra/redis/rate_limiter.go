package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter implements best-effort request throttling on short-lived
// counter keys. The INCR/EXPIRE pair is not atomic, so counts are approximate.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

// IPCountKey throttles payment creation per client IP and payment method.
func IPCountKey(currency, ip string) string {
	return fmt.Sprintf("ip_count_%s:%s", currency, ip)
}

// TrialSentKey marks a trial email as recently requested.
func TrialSentKey(email string) string {
	return email + ":trial"
}

// BlacklistKey marks an email hosting domain as blocked.
func BlacklistKey(domain string) string {
	return "blacklist:email:" + domain
}
