package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transColumns = `id, system, data, days, amount, email, created, expires, trial, coupon, country_iso, complete, partner_id, partner_amount, check_order_id, remote_invoice_id, remote_status, pay_time, refund`

func (r *transactionRepo) Insert(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (` + transColumns + `)
VALUES ($1,$2,$3,$4,$5,LOWER($6),$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19);`
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.System, t.Data, t.Days, t.Amount.String(), t.Email, t.Created, t.Expires,
		t.Trial, t.Coupon, t.CountryISO, t.Complete, t.PartnerID, t.PartnerAmount.String(),
		t.CheckOrderID, t.RemoteInvoiceID, t.RemoteStatus, t.PayTime, t.Refund)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	q := `SELECT ` + transColumns + ` FROM transactions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

// CompleteIfPending atomically flips complete only when it is still false.
// The affected-row count closes the duplicate-webhook race window.
func (r *transactionRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `UPDATE transactions SET complete = TRUE WHERE id=$1 AND complete = FALSE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *transactionRepo) SetExpires(ctx context.Context, tx repository.Tx, id string, expires time.Time) error {
	const q = `UPDATE transactions SET expires=$2 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, expires)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) SetRemoteCorrelation(ctx context.Context, tx repository.Tx, id, invoiceID, status string) error {
	const q = `UPDATE transactions SET remote_invoice_id=$2, remote_status=$3 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, invoiceID, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) SumCompletedByPeriod(ctx context.Context, tx repository.Tx, period string) (decimal.Decimal, error) {
	// Summed as numeric and scanned as text so fractional amounts survive.
	const q = `SELECT COALESCE(SUM(amount),0)::text FROM transactions WHERE complete = TRUE AND created >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return decimal.Zero, err
	}
	var raw string
	if err := row.Scan(&raw); err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	sum, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	var amount, partnerAmount string
	if err := row.Scan(&t.ID, &t.System, &t.Data, &t.Days, &amount, &t.Email, &t.Created,
		&t.Expires, &t.Trial, &t.Coupon, &t.CountryISO, &t.Complete, &t.PartnerID,
		&partnerAmount, &t.CheckOrderID, &t.RemoteInvoiceID, &t.RemoteStatus, &t.PayTime, &t.Refund); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if t.PartnerAmount, err = decimal.NewFromString(partnerAmount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}
