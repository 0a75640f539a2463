package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"vpn-subscription-backend/internal/domain/model"
)

type TransactionRepository interface {
	Insert(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	// CompleteIfPending atomically flips complete=false -> true and reports
	// whether this call performed the transition. A false return with nil
	// error means another delivery won the race.
	CompleteIfPending(ctx context.Context, tx Tx, id string) (bool, error)
	SetExpires(ctx context.Context, tx Tx, id string, expires time.Time) error
	SetRemoteCorrelation(ctx context.Context, tx Tx, id, invoiceID, status string) error
	// SumCompletedByPeriod totals completed payment amounts since the start
	// of the given DATE_TRUNC period ("week", "month", "year").
	SumCompletedByPeriod(ctx context.Context, tx Tx, period string) (decimal.Decimal, error)
}
