package model

import "github.com/shopspring/decimal"

// Partner is a referral partner earning a commission on payments.
// Read-only in the payment flow.
type Partner struct {
	ID         int64
	Commission decimal.Decimal // percent
	Lang       string
	APIKey     string
}

// CommissionOn returns round(amount * commission / 100, 2).
func (p *Partner) CommissionOn(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.Commission).Div(decimal.NewFromInt(100)).Round(2)
}
