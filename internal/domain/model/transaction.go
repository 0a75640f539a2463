package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records a single payment attempt against the external gateway.
// The complete flag transitions false->true exactly once; re-confirmation of a
// completed transaction is rejected upstream, never reprocessed.
type Transaction struct {
	ID            string // UUID, used as the gateway order id
	System        string // payment-system name, e.g. "freekassa", "free"
	Data          string // opaque JSON metadata
	Days          int    // plan length in days (0 = trial)
	Amount        decimal.Decimal
	Email         string
	Created       time.Time
	Expires       time.Time // payment pending window, then entitlement expiry
	Trial         bool
	Coupon        string // coupon code applied to this transaction, if any
	CountryISO    string
	Complete      bool
	PartnerID     *int64
	PartnerAmount decimal.Decimal
	// Remote gateway correlation
	CheckOrderID    *int64
	RemoteInvoiceID string
	RemoteStatus    string
	PayTime         *int64
	Refund          bool
}
