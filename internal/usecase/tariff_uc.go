package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/repository"
	"vpn-subscription-backend/internal/infra/redis"
)

// Compile-time check
var _ TariffUseCase = (*tariffUC)(nil)

type TariffUseCase interface {
	// List returns the public tariff table through a short read-through cache.
	List(ctx context.Context) ([]*model.Tariff, error)
}

type tariffUC struct {
	tariffs repository.TariffRepository
	cache   *redis.PaymentCache
	log     *zerolog.Logger
}

func NewTariffUseCase(tariffs repository.TariffRepository, cache *redis.PaymentCache, logger *zerolog.Logger) *tariffUC {
	return &tariffUC{tariffs: tariffs, cache: cache, log: logger}
}

func (u *tariffUC) List(ctx context.Context) ([]*model.Tariff, error) {
	cached, err := u.cache.Tariffs(ctx)
	if err != nil {
		u.log.Warn().Err(err).Msg("tariff cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	tariffs, err := u.tariffs.List(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	if err := u.cache.StoreTariffs(ctx, tariffs); err != nil {
		u.log.Warn().Err(err).Msg("tariff cache write failed")
	}
	return tariffs, nil
}
