package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

const couponColumns = `coupon, percent, prolong, times_used, max_use_limit, manual, created, expiration, plans`

func (r *couponRepo) Insert(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	const q = `
INSERT INTO coupons (` + couponColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.Code, c.Percent, c.Prolong, c.TimesUsed, c.MaxUseLimit, c.Manual, c.Created, c.Expiration, c.Plans)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+couponColumns+` FROM coupons WHERE coupon=$1;`, code)
	if err != nil {
		return nil, err
	}
	c := &model.Coupon{}
	if err := row.Scan(&c.Code, &c.Percent, &c.Prolong, &c.TimesUsed, &c.MaxUseLimit,
		&c.Manual, &c.Created, &c.Expiration, &c.Plans); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

// IncrementUsage is a no-op for unknown codes; the ledger calls it blindly
// after confirmation, including for transactions without a coupon.
func (r *couponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, code string) error {
	if code == "" {
		return nil
	}
	const q = `UPDATE coupons SET times_used = times_used + 1 WHERE coupon=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
