package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ WebhookVerifier = (*webhookVerifier)(nil)

// amountTolerance is the accepted drift, in rubles, between the gateway's
// reported ruble amount and our USD amount converted at the current rate.
const amountTolerance = 300

// trailingZeroRe strips trailing fractional zeros so "20.0" and "20"
// compare equal as amounts.
var trailingZeroRe = regexp.MustCompile(`(\d+)\.0+`)

type WebhookVerifier interface {
	// Verify runs the ordered acceptance checks for a gateway confirmation
	// callback. It returns ok=false with a human-readable reason on the first
	// failed check; the reason is surfaced verbatim in the webhook response.
	Verify(ctx context.Context, payload *model.ConfirmPayload, trans *model.Transaction) (bool, string)
}

type webhookVerifier struct {
	shopID     string
	secret2    string
	allowedIPs []string
	rates      adapter.RateSource
}

func NewWebhookVerifier(shopID, secret2 string, allowedIPs []string, rates adapter.RateSource) *webhookVerifier {
	return &webhookVerifier{shopID: shopID, secret2: secret2, allowedIPs: allowedIPs, rates: rates}
}

func (v *webhookVerifier) Verify(ctx context.Context, payload *model.ConfirmPayload, trans *model.Transaction) (bool, string) {
	if !v.ipAllowed(payload.IP) {
		return false, fmt.Sprintf("Not allowed remote IP %s", payload.IP)
	}
	if trans == nil {
		return false, "transaction is None"
	}
	if trans.Complete {
		return false, fmt.Sprintf("Already completed %s", trans.ID)
	}
	if trans.Email == "" {
		return false, fmt.Sprintf("Invalid ID %s", trans.ID)
	}
	if payload.Sign == "" {
		return false, "Security hash is not in parameters"
	}
	if payload.MerchantID != v.shopID {
		return false, fmt.Sprintf("Invalid account %s", payload.MerchantID)
	}

	gotAmount := NormalizeAmount(payload.Amount)
	ourAmount := NormalizeAmount(trans.Amount.String())

	if gotAmount != ourAmount && !v.withinRateTolerance(ctx, gotAmount, ourAmount) {
		return false, fmt.Sprintf("Invalid amount %s %s", gotAmount, ourAmount)
	}

	expected := v.signConfirm(gotAmount, payload.OrderID)
	if expected != payload.Sign {
		return false, fmt.Sprintf("Invalid hash sum %s", payload.Sign)
	}
	return true, ""
}

// ipAllowed accepts the gateway's published callback hosts plus the
// 192.* range used when the gateway calls through our ingress.
func (v *webhookVerifier) ipAllowed(ip string) bool {
	if ip == "" {
		return false
	}
	for _, allowed := range v.allowedIPs {
		if ip == allowed {
			return true
		}
	}
	return strings.HasPrefix(ip, "192.")
}

// withinRateTolerance treats the gateway amount as rubles and ours as USD,
// converting at the live rate. The rate is only fetched when the textual
// amounts disagree.
func (v *webhookVerifier) withinRateTolerance(ctx context.Context, got, ours string) bool {
	gotF, err := strconv.ParseFloat(got, 64)
	if err != nil {
		return false
	}
	oursF, err := strconv.ParseFloat(ours, 64)
	if err != nil {
		return false
	}
	rate := v.rates.USDToRUB(ctx)
	return math.Abs(gotF-oursF*rate) <= amountTolerance
}

// signConfirm computes the gateway's webhook signature:
// md5(shopID:amount:secret2:orderID) over the normalized amount.
func (v *webhookVerifier) signConfirm(amount, orderID string) string {
	sum := md5.Sum([]byte(v.shopID + ":" + amount + ":" + v.secret2 + ":" + orderID))
	return hex.EncodeToString(sum[:])
}

// NormalizeAmount strips trailing fractional zeros, "20.0" -> "20".
func NormalizeAmount(s string) string {
	return trailingZeroRe.ReplaceAllString(s, "$1")
}
