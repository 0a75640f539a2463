package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vpn-subscription-backend/internal/domain/model"
)

const (
	trialSentTTL   = 60 * time.Second
	tariffCacheTTL = 20 * time.Second
	tariffCacheKey = "tariffs_whox"
)

// PaymentCache groups the short-lived key contracts the payment flow relies on.
type PaymentCache struct {
	client RedisClient
}

func NewPaymentCache(client RedisClient) *PaymentCache {
	return &PaymentCache{client: client}
}

// TrialAlreadySent reports whether a trial was requested for the email within
// the last minute, and marks it if not.
func (c *PaymentCache) TrialAlreadySent(ctx context.Context, email string) (bool, error) {
	key := TrialSentKey(email)
	_, err := c.client.Get(ctx, key)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, Nil) {
		return false, err
	}
	if err := c.client.Set(ctx, key, 1, trialSentTTL); err != nil {
		return false, err
	}
	return false, nil
}

// IsBlacklistedDomain checks the indefinite email-hosting blacklist.
func (c *PaymentCache) IsBlacklistedDomain(ctx context.Context, domain string) (bool, error) {
	n, err := c.client.Exists(ctx, BlacklistKey(domain))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Tariffs returns the cached tariff list, or nil on a miss.
func (c *PaymentCache) Tariffs(ctx context.Context) ([]*model.Tariff, error) {
	raw, err := c.client.Get(ctx, tariffCacheKey)
	if err != nil {
		if errors.Is(err, Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out []*model.Tariff
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StoreTariffs caches the tariff list for the short read-through window.
func (c *PaymentCache) StoreTariffs(ctx context.Context, tariffs []*model.Tariff) error {
	raw, err := json.Marshal(tariffs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tariffCacheKey, string(raw), tariffCacheTTL)
}
