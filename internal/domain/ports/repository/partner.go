package repository

import (
	"context"

	"vpn-subscription-backend/internal/domain/model"
)

type PartnerRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Partner, error)
}
