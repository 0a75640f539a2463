package adapter

import (
	"context"

	"github.com/shopspring/decimal"
)

// InvoiceRequest carries the fields the gateway signs over, in canonical order.
type InvoiceRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Email     string
	IP        string
	PaymentID string // our transaction id, the gateway's order correlation token
}

// InvoiceResult is the parsed gateway response for a created invoice.
type InvoiceResult struct {
	Location  string // redirect URL to the hosted payment page
	InvoiceID string // remote invoice id when the gateway returns one
}

// InvoiceGateway creates invoices on the external payment gateway.
// Transport and non-2xx failures surface as recoverable errors carrying the
// endpoint and cause; the caller decides whether to retry.
type InvoiceGateway interface {
	Name() string
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error)
}
