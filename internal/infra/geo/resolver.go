// Package geo resolves client IPs to country codes through an external
// lookup service. The GeoIP database itself is an external collaborator;
// this adapter only carries the request/response contract.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/config"
	"vpn-subscription-backend/internal/domain/ports/adapter"
)

var _ adapter.CountryResolver = (*HTTPResolver)(nil)

type HTTPResolver struct {
	serviceURL string
	defaultISO string
	client     *http.Client
	log        *zerolog.Logger
}

func NewHTTPResolver(cfg config.GeoConfig, logger *zerolog.Logger) *HTTPResolver {
	return &HTTPResolver{
		serviceURL: cfg.ServiceURL,
		defaultISO: cfg.DefaultISO,
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        logger,
	}
}

type lookupResponse struct {
	CountryISO string `json:"country_iso"`
}

// CountryISO never fails: lookup errors and local addresses degrade to the
// configured default.
func (r *HTTPResolver) CountryISO(ctx context.Context, ip string) string {
	if ip == "" || ip == "127.0.0.1" || ip == "0.0.0.0" || r.serviceURL == "" {
		return r.defaultISO
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?ip=%s", r.serviceURL, ip), nil)
	if err != nil {
		return r.defaultISO
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn().Err(err).Str("ip", ip).Msg("geo: lookup failed")
		return r.defaultISO
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return r.defaultISO
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return r.defaultISO
	}
	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.CountryISO == "" {
		return r.defaultISO
	}
	return strings.ToLower(parsed.CountryISO)
}

// StaticResolver always answers with a fixed country code. Used in dev mode
// and tests.
type StaticResolver struct{ ISO string }

var _ adapter.CountryResolver = (*StaticResolver)(nil)

func (s *StaticResolver) CountryISO(context.Context, string) string { return s.ISO }
