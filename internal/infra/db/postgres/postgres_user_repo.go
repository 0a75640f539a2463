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

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, email, code, coupon, password, expires, plan, trial, country_iso, lang, reg_source, partner_id, created`

func (r *userRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1, LOWER($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.Email, u.Code, u.Coupon, u.Password, u.Expires, u.Plan, u.Trial,
		u.CountryISO, u.Lang, u.RegSource, u.PartnerID, u.Created)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, email)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE code=$1;`, code)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) Update(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
UPDATE users SET
  code=$2, coupon=$3, expires=$4, plan=$5, trial=$6, country_iso=$7, lang=$8
WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.Code, u.Coupon, u.Expires, u.Plan, u.Trial, u.CountryISO, u.Lang)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userRepo) ListExpiringBetween(ctx context.Context, tx repository.Tx, from, to int64, limit int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + userColumns + ` FROM users
WHERE trial = FALSE AND expires >= $1 AND expires < $2
ORDER BY expires ASC LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, from, to, limit)
	if err != nil {
		return nil, mapListErr(err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepo) ListRecentTrialsWithoutCoupon(ctx context.Context, tx repository.Tx, sinceDays, limit int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + userColumns + ` FROM users
WHERE trial = TRUE AND (coupon = '' OR coupon IS NULL)
  AND created >= NOW() - ($1 || ' days')::interval
ORDER BY created DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, sinceDays, limit)
	if err != nil {
		return nil, mapListErr(err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *userRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Code, &u.Coupon, &u.Password, &u.Expires,
		&u.Plan, &u.Trial, &u.CountryISO, &u.Lang, &u.RegSource, &u.PartnerID, &u.Created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]*model.User, error) {
	var out []*model.User
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Code, &u.Coupon, &u.Password, &u.Expires,
			&u.Plan, &u.Trial, &u.CountryISO, &u.Lang, &u.RegSource, &u.PartnerID, &u.Created); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, u)
	}
	return out, nil
}

func mapListErr(err error) error {
	switch err {
	case pgx.ErrNoRows:
		return domain.ErrNotFound
	case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
		return err
	default:
		return domain.ErrOperationFailed
	}
}
