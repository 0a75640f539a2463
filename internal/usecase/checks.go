package usecase

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/infra/redis"
)

// Compile-time check
var _ CheckPolicy = (*checkPolicy)(nil)

const (
	ipWindow = 60 * time.Second
	ipLimit  = 2
)

// throttledCurrencies are the payment methods gated by the per-IP counter.
var throttledCurrencies = map[string]bool{
	"free":   true,
	"paypal": true,
}

type CheckPolicy interface {
	// Screen validates and normalizes an incoming payment context in place.
	// It rewrites known email-domain typos, enforces the per-IP rate window,
	// the trial resend window and the email-domain blacklist.
	Screen(ctx context.Context, pc *model.PaymentContext) error
}

type checkPolicy struct {
	limiter   *redis.RateLimiter
	cache     *redis.PaymentCache
	fixEmails map[string][]string
}

func NewCheckPolicy(limiter *redis.RateLimiter, cache *redis.PaymentCache, fixEmails map[string][]string) *checkPolicy {
	return &checkPolicy{limiter: limiter, cache: cache, fixEmails: fixEmails}
}

func (p *checkPolicy) Screen(ctx context.Context, pc *model.PaymentContext) error {
	pc.Email = strings.ToLower(strings.TrimSpace(pc.Email))
	if _, err := mail.ParseAddress(pc.Email); err != nil {
		return domain.ErrInvalidArgument
	}
	pc.Email = p.fixEmailDomain(pc.Email)

	if !pc.IsTrial() && pc.Plan == 0 {
		return domain.ErrNoPlanSelected
	}

	emailDomain := pc.Email[strings.LastIndex(pc.Email, "@")+1:]
	blocked, err := p.cache.IsBlacklistedDomain(ctx, emailDomain)
	if err != nil {
		return err
	}
	if blocked {
		return domain.ErrBlacklistedEmail
	}

	if throttledCurrencies[pc.Currency] && pc.IP != "" {
		ok, err := p.limiter.Allow(ctx, redis.IPCountKey(pc.Currency, pc.IP), ipLimit, ipWindow)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrRateLimited
		}
	}

	if pc.IsTrial() {
		sent, err := p.cache.TrialAlreadySent(ctx, pc.Email)
		if err != nil {
			return err
		}
		if sent {
			return domain.ErrTrialAlreadySent
		}
	}

	return nil
}

// fixEmailDomain rewrites well-known typo domains to their canonical form.
func (p *checkPolicy) fixEmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	local, d := email[:at], email[at+1:]
	for canonical, typos := range p.fixEmails {
		for _, t := range typos {
			if d == t {
				return local + "@" + canonical
			}
		}
	}
	return email
}
