package repository

import (
	"context"

	"vpn-subscription-backend/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, tx Tx, u *model.User) error
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	FindByCode(ctx context.Context, tx Tx, code string) (*model.User, error)
	// Update persists entitlement fields after a confirmed payment:
	// code, coupon, expires, plan, trial.
	Update(ctx context.Context, tx Tx, u *model.User) error
	// ListExpiringBetween returns paid users whose expiry falls in [from, to),
	// for the payment reminder job.
	ListExpiringBetween(ctx context.Context, tx Tx, from, to int64, limit int) ([]*model.User, error)
	// ListRecentTrialsWithoutCoupon returns trial users created in the last
	// `sinceDays` days who have no personal coupon yet.
	ListRecentTrialsWithoutCoupon(ctx context.Context, tx Tx, sinceDays, limit int) ([]*model.User, error)
	Count(ctx context.Context, tx Tx) (int, error)
}
