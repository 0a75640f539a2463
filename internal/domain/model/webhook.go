package model

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var numericRe = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ConfirmPayload is the typed form of the gateway's webhook parameters.
// The gateway sends every field as string-or-number; coercion happens here at
// the boundary so the verifier only ever sees typed data.
type ConfirmPayload struct {
	IntID        string // gateway-internal operation id
	OrderID      string // MERCHANT_ORDER_ID, our transaction id
	Sign         string
	MerchantID   string
	Amount       string // kept textual for trailing-zero normalization
	PayerEmail   string
	PayerPhone   string
	CurrencyID   string
	PayerAccount string
	Commission   string
	IP           string
}

// ParseConfirmPayload coerces raw webhook query parameters into a typed
// payload. Ambiguous numeric input (a non-numeric AMOUNT or CUR_ID) is an
// error here rather than deep inside verification.
func ParseConfirmPayload(q url.Values, ip string) (*ConfirmPayload, error) {
	p := &ConfirmPayload{
		IntID:        strings.TrimSpace(q.Get("intid")),
		OrderID:      strings.TrimSpace(q.Get("MERCHANT_ORDER_ID")),
		Sign:         strings.TrimSpace(q.Get("SIGN")),
		MerchantID:   strings.TrimSpace(q.Get("MERCHANT_ID")),
		Amount:       strings.TrimSpace(q.Get("AMOUNT")),
		PayerEmail:   strings.TrimSpace(q.Get("P_EMAIL")),
		PayerPhone:   strings.TrimSpace(q.Get("P_PHONE")),
		CurrencyID:   strings.TrimSpace(q.Get("CUR_ID")),
		PayerAccount: strings.TrimSpace(q.Get("payer_account")),
		Commission:   strings.TrimSpace(q.Get("commission")),
		IP:           ip,
	}
	if p.Amount != "" && !numericRe.MatchString(p.Amount) {
		return nil, fmt.Errorf("AMOUNT is not numeric: %q", p.Amount)
	}
	if p.CurrencyID != "" && !numericRe.MatchString(p.CurrencyID) {
		return nil, fmt.Errorf("CUR_ID is not numeric: %q", p.CurrencyID)
	}
	return p, nil
}
