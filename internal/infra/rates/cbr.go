// Package rates resolves the USD to RUB conversion rate for the webhook
// amount-tolerance check, with a short Redis cache in front of the Central
// Bank daily-rate feed and a hardcoded fallback when the feed is down.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/config"
	"vpn-subscription-backend/internal/domain/ports/adapter"
	red "vpn-subscription-backend/internal/infra/redis"
)

const rateCacheKey = "usdtorub"

var _ adapter.RateSource = (*CBRRateSource)(nil)

type CBRRateSource struct {
	url      string
	cacheTTL time.Duration
	fallback float64
	cache    red.RedisClient
	client   *http.Client
	log      *zerolog.Logger
}

func NewCBRRateSource(cfg config.RatesConfig, cache red.RedisClient, logger *zerolog.Logger) *CBRRateSource {
	return &CBRRateSource{
		url:      cfg.URL,
		cacheTTL: cfg.CacheTTL,
		fallback: cfg.Fallback,
		cache:    cache,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      logger,
	}
}

type dailyFeed struct {
	Valute struct {
		USD struct {
			Value float64 `json:"Value"`
		} `json:"USD"`
	} `json:"Valute"`
}

// USDToRUB returns the cached rate when fresh, otherwise fetches the daily
// feed. Fetch failures degrade to the configured fallback rate; the webhook
// tolerance check must never fail outright on a rate lookup.
func (s *CBRRateSource) USDToRUB(ctx context.Context) float64 {
	if cached, err := s.cache.Get(ctx, rateCacheKey); err == nil && cached != "" {
		if rate, err := strconv.ParseFloat(cached, 64); err == nil {
			return rate
		}
	} else if err != nil && !errors.Is(err, red.Nil) {
		s.log.Warn().Err(err).Msg("rates: cache get failed")
	}

	rate, err := s.fetch(ctx)
	if err != nil {
		s.log.Error().Err(err).Float64("fallback", s.fallback).Msg("rates: feed fetch failed")
		return s.fallback
	}
	if err := s.cache.Set(ctx, rateCacheKey, fmt.Sprintf("%g", rate), s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("rates: cache set failed")
	}
	return rate
}

func (s *CBRRateSource) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("request %s: status %d", s.url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	var feed dailyFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return 0, fmt.Errorf("parse feed: %w", err)
	}
	if feed.Valute.USD.Value <= 0 {
		return 0, fmt.Errorf("feed has no USD rate")
	}
	return feed.Valute.USD.Value, nil
}
