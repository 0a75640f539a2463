package repository

import (
	"context"

	"vpn-subscription-backend/internal/domain/model"
)

type TariffRepository interface {
	List(ctx context.Context, tx Tx) ([]*model.Tariff, error)
	FindByDays(ctx context.Context, tx Tx, days int) (*model.Tariff, error)
}
