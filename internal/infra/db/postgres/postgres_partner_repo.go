package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/repository"
)

var _ repository.PartnerRepository = (*partnerRepo)(nil)

type partnerRepo struct{ pool *pgxpool.Pool }

func NewPartnerRepo(pool *pgxpool.Pool) *partnerRepo {
	return &partnerRepo{pool: pool}
}

func (r *partnerRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Partner, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, commission, lang, api_key FROM partners WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	p := &model.Partner{}
	var commission string
	if err := row.Scan(&p.ID, &commission, &p.Lang, &p.APIKey); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if p.Commission, err = decimal.NewFromString(commission); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
