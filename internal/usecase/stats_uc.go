package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"vpn-subscription-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Totals(ctx context.Context) (users int, err error)
	Revenue(ctx context.Context) (week, month, year decimal.Decimal, err error)
}

type statsUC struct {
	users repository.UserRepository
	trans repository.TransactionRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, trans repository.TransactionRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, trans: trans, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (int, error) {
	return s.users.Count(ctx, repository.NoTX)
}

func (s *statsUC) Revenue(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	w, err := s.trans.SumCompletedByPeriod(ctx, repository.NoTX, "week")
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	m, err := s.trans.SumCompletedByPeriod(ctx, repository.NoTX, "month")
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	y, err := s.trans.SumCompletedByPeriod(ctx, repository.NoTX, "year")
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	return w, m, y, nil
}
