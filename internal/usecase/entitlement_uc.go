package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

const (
	secondsPerDay = 86400

	personalCouponPercent = 10
	personalCouponDays    = 30
)

type EntitlementUseCase interface {
	// Apply folds a confirmed transaction into the customer's account:
	// access code and personal coupon are allocated when missing, remaining
	// paid time is carried over, the prolong bonus is added and the trial
	// flag collapses once a paid purchase lands. Returns the updated user.
	Apply(ctx context.Context, trans *model.Transaction) (*model.User, error)
}

type entitlementUC struct {
	users   repository.UserRepository
	coupons repository.CouponRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewEntitlementUseCase(users repository.UserRepository, coupons repository.CouponRepository, tm repository.TransactionManager, logger *zerolog.Logger) *entitlementUC {
	return &entitlementUC{users: users, coupons: coupons, tm: tm, log: logger}
}

func (u *entitlementUC) Apply(ctx context.Context, trans *model.Transaction) (*model.User, error) {
	var updated *model.User

	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByEmail(ctx, tx, trans.Email)
		if err != nil {
			return err
		}

		if !user.HasCode() {
			code, err := generateAccessCode(ctx, u.users, tx)
			if err != nil {
				return err
			}
			user.Code = code
		}

		if !user.HasCoupon() {
			coupon, err := u.issuePersonalCoupon(ctx, tx)
			if err != nil {
				return err
			}
			user.Coupon = coupon
		}

		now := time.Now().Unix()
		var elapsed int64
		if user.Expires > now && !user.Trial {
			elapsed = user.Expires - now
		}
		user.Expires = now + int64(trans.Days)*secondsPerDay + elapsed

		if trans.Coupon != "" {
			tc, err := u.coupons.FindByCode(ctx, tx, trans.Coupon)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if tc != nil && tc.Prolong > 0 {
				user.Expires += int64(trans.Days) * secondsPerDay * int64(tc.Prolong) / 100
			}
		}

		user.Trial = user.Trial && trans.Trial
		user.Plan = trans.Days

		if err := u.users.Update(ctx, tx, user); err != nil {
			return err
		}
		updated, err = u.users.FindByEmail(ctx, tx, user.Email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// issuePersonalCoupon allocates an unused coupon code and stores a
// single-use 10% discount valid for 30 days.
func (u *entitlementUC) issuePersonalCoupon(ctx context.Context, tx repository.Tx) (string, error) {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := randomToken(chars, codeRandomLen)
		if err != nil {
			return "", err
		}
		_, err = u.coupons.FindByCode(ctx, tx, code)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}

		c := &model.Coupon{
			Code:        code,
			Percent:     personalCouponPercent,
			MaxUseLimit: 1,
			Created:     time.Now(),
			Expiration:  time.Now().Add(personalCouponDays * 24 * time.Hour),
		}
		if err := u.coupons.Insert(ctx, tx, c); err != nil {
			return "", err
		}
		return code, nil
	}
	return "", domain.ErrCodeSpaceExhausted
}
