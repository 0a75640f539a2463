package repository

import (
	"context"

	"vpn-subscription-backend/internal/domain/model"
)

type CouponRepository interface {
	Insert(ctx context.Context, tx Tx, c *model.Coupon) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	// IncrementUsage bumps times_used by one. No-op (nil error) when the code
	// does not exist.
	IncrementUsage(ctx context.Context, tx Tx, code string) error
}
