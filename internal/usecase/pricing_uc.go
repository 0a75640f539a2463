package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ PricingUseCase = (*pricingUC)(nil)

type PricingUseCase interface {
	// Quote computes the amount to charge for a plan after an optional
	// percentage discount. Trial requests always quote zero.
	Quote(ctx context.Context, pc *model.PaymentContext, discountPercent int) (decimal.Decimal, error)
}

type pricingUC struct {
	tariffs repository.TariffRepository
}

func NewPricingUseCase(tariffs repository.TariffRepository) *pricingUC {
	return &pricingUC{tariffs: tariffs}
}

func (u *pricingUC) Quote(ctx context.Context, pc *model.PaymentContext, discountPercent int) (decimal.Decimal, error) {
	if pc.IsTrial() || pc.Plan == 0 {
		return decimal.Zero, nil
	}

	t, err := u.tariffs.FindByDays(ctx, nil, pc.Plan)
	if err != nil {
		if err == domain.ErrNotFound {
			return decimal.Zero, domain.ErrNoPlanSelected
		}
		return decimal.Zero, err
	}

	base, err := decimal.NewFromString(t.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tariff %d has malformed price %q: %w", t.Days, t.Price, err)
	}

	if discountPercent <= 0 {
		return base.Round(2), nil
	}
	factor := decimal.NewFromInt(int64(100 - discountPercent)).Div(decimal.NewFromInt(100))
	return base.Mul(factor).Round(2), nil
}
