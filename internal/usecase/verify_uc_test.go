//go:build !integration

package usecase_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/usecase"
)

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

const (
	testShopID  = "S"
	testSecret2 = "K"
	testOrderID = "4467877"
	// md5("S:20:K:4467877")
	testSign = "9b3bb3be02b8a70fbf79fdf8b71b84dc"
)

var allowedIPs = []string{"168.119.157.136"}

func pendingTransaction() *model.Transaction {
	return &model.Transaction{
		ID:      testOrderID,
		System:  "freekassa",
		Days:    30,
		Amount:  mustDecimal("20"),
		Email:   "user@example.com",
		Created: time.Now(),
	}
}

func confirmPayload() *model.ConfirmPayload {
	return &model.ConfirmPayload{
		OrderID:    testOrderID,
		Sign:       testSign,
		MerchantID: testShopID,
		Amount:     "20",
		IP:         allowedIPs[0],
	}
}

func newVerifier(rates *MockRateSource) usecase.WebhookVerifier {
	return usecase.NewWebhookVerifier(testShopID, testSecret2, allowedIPs, rates)
}

func TestVerify_HappyPath(t *testing.T) {
	rates := &MockRateSource{Rate: 90}
	v := newVerifier(rates)

	ok, reason := v.Verify(context.Background(), confirmPayload(), pendingTransaction())
	if !ok {
		t.Fatalf("Verify: rejected with %q", reason)
	}
	if rates.Calls != 0 {
		t.Fatalf("Verify: rate source consulted on textual amount match (%d calls)", rates.Calls)
	}
}

func TestVerify_TrailingZerosNormalized(t *testing.T) {
	rates := &MockRateSource{Rate: 90}
	v := newVerifier(rates)

	// "20.0" and a stored amount of "20.00" both normalize to "20"; the
	// signature is over the normalized value.
	payload := confirmPayload()
	payload.Amount = "20.0"
	trans := pendingTransaction()
	trans.Amount = mustDecimal("20.00")

	ok, reason := v.Verify(context.Background(), payload, trans)
	if !ok {
		t.Fatalf("Verify: rejected with %q", reason)
	}
	if rates.Calls != 0 {
		t.Fatalf("Verify: rate source should not be consulted, got %d calls", rates.Calls)
	}
}

func TestVerify_RemoteIP(t *testing.T) {
	v := newVerifier(&MockRateSource{Rate: 90})

	payload := confirmPayload()
	payload.IP = "10.1.2.3"
	ok, reason := v.Verify(context.Background(), payload, pendingTransaction())
	if ok || !strings.HasPrefix(reason, "Not allowed remote IP") {
		t.Fatalf("Verify: ok=%v reason=%q", ok, reason)
	}

	// the ingress-local 192.* range is always accepted
	payload.IP = "192.168.0.7"
	if ok, reason := v.Verify(context.Background(), payload, pendingTransaction()); !ok {
		t.Fatalf("Verify 192.* source: rejected with %q", reason)
	}
}

func TestVerify_MissingTransaction(t *testing.T) {
	v := newVerifier(&MockRateSource{Rate: 90})

	ok, reason := v.Verify(context.Background(), confirmPayload(), nil)
	if ok || reason != "transaction is None" {
		t.Fatalf("Verify: ok=%v reason=%q", ok, reason)
	}
}

func TestVerify_AlreadyCompleted(t *testing.T) {
	v := newVerifier(&MockRateSource{Rate: 90})

	trans := pendingTransaction()
	trans.Complete = true
	ok, reason := v.Verify(context.Background(), confirmPayload(), trans)
	if ok || !strings.HasPrefix(reason, "Already completed") {
		t.Fatalf("Verify: ok=%v reason=%q", ok, reason)
	}
}

func TestVerify_MissingSign(t *testing.T) {
	v := newVerifier(&MockRateSource{Rate: 90})

	payload := confirmPayload()
	payload.Sign = ""
	ok, reason := v.Verify(context.Background(), payload, pendingTransaction())
	if ok || reason != "Security hash is not in parameters" {
		t.Fatalf("Verify: ok=%v reason=%q", ok, reason)
	}
}

func TestVerify_WrongMerchant(t *testing.T) {
	v := newVerifier(&MockRateSource{Rate: 90})

	payload := confirmPayload()
	payload.MerchantID = "999"
	ok, reason := v.Verify(context.Background(), payload, pendingTransaction())
	if ok || !strings.HasPrefix(reason, "Invalid account") {
		t.Fatalf("Verify: ok=%v reason=%q", ok, reason)
	}
}

func TestVerify_TamperedSignRejected(t *testing.T) {
	v := newVerifier(&MockRateSource{Rate: 90})

	payload := confirmPayload()
	payload.Sign = "9b3bb3be02b8a70fbf79fdf8b71b84dd" // last nibble flipped
	ok, reason := v.Verify(context.Background(), payload, pendingTransaction())
	if ok || !strings.HasPrefix(reason, "Invalid hash sum") {
		t.Fatalf("Verify: ok=%v reason=%q", ok, reason)
	}
}

func TestVerify_RubleAmountWithinTolerance(t *testing.T) {
	rates := &MockRateSource{Rate: 90}
	v := newVerifier(rates)

	// The gateway reports rubles: 20 USD * 90 = 1800. A drift under 300 is
	// accepted, but the signature must cover the gateway's amount string.
	payload := confirmPayload()
	payload.Amount = "1750"
	payload.Sign = md5Hex(testShopID + ":1750:" + testSecret2 + ":" + testOrderID)

	ok, reason := v.Verify(context.Background(), payload, pendingTransaction())
	if !ok {
		t.Fatalf("Verify: rejected with %q", reason)
	}
	if rates.Calls != 1 {
		t.Fatalf("Verify: expected one rate lookup, got %d", rates.Calls)
	}
}

func TestVerify_RubleAmountOutsideTolerance(t *testing.T) {
	v := newVerifier(&MockRateSource{Rate: 90})

	payload := confirmPayload()
	payload.Amount = "1400" // |1400 - 1800| > 300
	ok, reason := v.Verify(context.Background(), payload, pendingTransaction())
	if ok || !strings.HasPrefix(reason, "Invalid amount") {
		t.Fatalf("Verify: ok=%v reason=%q", ok, reason)
	}
}

func TestNormalizeAmount(t *testing.T) {
	cases := map[string]string{
		"20.0":  "20",
		"20.00": "20",
		"20":    "20",
		"8.91":  "8.91",
	}
	for in, want := range cases {
		if got := usecase.NormalizeAmount(in); got != want {
			t.Errorf("NormalizeAmount(%q) = %q, want %q", in, got, want)
		}
	}
}
