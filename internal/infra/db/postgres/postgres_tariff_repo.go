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

var _ repository.TariffRepository = (*tariffRepo)(nil)

type tariffRepo struct{ pool *pgxpool.Pool }

func NewTariffRepo(pool *pgxpool.Pool) *tariffRepo {
	return &tariffRepo{pool: pool}
}

func (r *tariffRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Tariff, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT days, name, price FROM tariffs ORDER BY days;`)
	if err != nil {
		return nil, mapListErr(err)
	}
	defer rows.Close()

	var out []*model.Tariff
	for rows.Next() {
		t := &model.Tariff{}
		if err := rows.Scan(&t.Days, &t.Name, &t.Price); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *tariffRepo) FindByDays(ctx context.Context, tx repository.Tx, days int) (*model.Tariff, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT days, name, price FROM tariffs WHERE days=$1;`, days)
	if err != nil {
		return nil, err
	}
	t := &model.Tariff{}
	if err := row.Scan(&t.Days, &t.Name, &t.Price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}
