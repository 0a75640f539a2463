package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ CouponUseCase = (*couponUC)(nil)

var couponCodeRe = regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`)

type CouponUseCase interface {
	// Evaluate resolves a coupon code against a plan. An empty code is not an
	// error: it returns (nil, nil) so callers can tell "no coupon" apart from
	// "invalid coupon" (domain.ErrInvalidCoupon).
	Evaluate(ctx context.Context, code string, plan int) (*model.CouponCheck, error)
	// IssuePersonal allocates an unused code and stores a single-use personal
	// discount coupon, returning the code. A non-empty plans list restricts
	// the coupon to those plan ids.
	IssuePersonal(ctx context.Context, percent int, validDays int, plans string) (string, error)
}

type couponUC struct {
	coupons repository.CouponRepository
}

func NewCouponUseCase(coupons repository.CouponRepository) *couponUC {
	return &couponUC{coupons: coupons}
}

func (u *couponUC) Evaluate(ctx context.Context, code string, plan int) (*model.CouponCheck, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	if !couponCodeRe.MatchString(code) {
		return nil, domain.ErrInvalidCoupon
	}

	c, err := u.coupons.FindByCode(ctx, nil, code)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrInvalidCoupon
		}
		return nil, err
	}

	if c.MaxUseLimit > 0 && c.TimesUsed >= c.MaxUseLimit {
		return nil, domain.ErrInvalidCoupon
	}
	if !c.Expiration.IsZero() && time.Now().After(c.Expiration) {
		return nil, domain.ErrInvalidCoupon
	}
	// Plan restriction applies only when a plan was supplied; a bare
	// coupon lookup (plan 0) still reports the discount.
	if allowed := c.AllowedPlans(); plan != 0 && len(allowed) > 0 {
		ok := false
		for _, p := range allowed {
			if p == plan {
				ok = true
				break
			}
		}
		if !ok {
			return nil, domain.ErrInvalidCoupon
		}
	}

	return &model.CouponCheck{Percent: c.Percent, Prolong: c.Prolong}, nil
}

func (u *couponUC) IssuePersonal(ctx context.Context, percent int, validDays int, plans string) (string, error) {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := randomToken(chars, codeRandomLen)
		if err != nil {
			return "", err
		}
		_, err = u.coupons.FindByCode(ctx, nil, code)
		if err == nil {
			continue
		}
		if err != domain.ErrNotFound {
			return "", err
		}

		c := &model.Coupon{
			Code:        code,
			Percent:     percent,
			Prolong:     0,
			MaxUseLimit: 1,
			Manual:      false,
			Created:     time.Now(),
			Expiration:  time.Now().Add(time.Duration(validDays) * 24 * time.Hour),
			Plans:       plans,
		}
		if err := u.coupons.Insert(ctx, nil, c); err != nil {
			return "", err
		}
		return code, nil
	}
	return "", domain.ErrCodeSpaceExhausted
}
