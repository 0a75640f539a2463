//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/infra/i18n"
	"vpn-subscription-backend/internal/infra/security"
	"vpn-subscription-backend/internal/usecase"
)

// --- Stub use cases ---

type stubFlow struct {
	CreateFunc  func(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error)
	ConfirmFunc func(ctx context.Context, payload *model.ConfirmPayload) string
}

var _ usecase.PaymentFlow = (*stubFlow)(nil)

func (s *stubFlow) Create(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error) {
	if s.CreateFunc != nil {
		return s.CreateFunc(ctx, pc)
	}
	return &model.CreateResult{UseForm: 1, PaymentURL: "https://pay.example.com/1", ID: "t-1"}, nil
}

func (s *stubFlow) Confirm(ctx context.Context, payload *model.ConfirmPayload) string {
	if s.ConfirmFunc != nil {
		return s.ConfirmFunc(ctx, payload)
	}
	return "YES"
}

type stubPages struct {
	SuccessFunc func(ctx context.Context, email, emailCookie string) (*model.PageMessage, error)
}

var _ usecase.PageUseCase = (*stubPages)(nil)

func (s *stubPages) Success(ctx context.Context, email, emailCookie string) (*model.PageMessage, error) {
	if s.SuccessFunc != nil {
		return s.SuccessFunc(ctx, email, emailCookie)
	}
	return &model.PageMessage{Message: "ok", Email: email}, nil
}

func (s *stubPages) Fail(ctx context.Context, email string) *model.PageMessage {
	return &model.PageMessage{Message: "fail"}
}

type stubCoupons struct {
	EvaluateFunc func(ctx context.Context, code string, plan int) (*model.CouponCheck, error)
}

var _ usecase.CouponUseCase = (*stubCoupons)(nil)

func (s *stubCoupons) Evaluate(ctx context.Context, code string, plan int) (*model.CouponCheck, error) {
	if s.EvaluateFunc != nil {
		return s.EvaluateFunc(ctx, code, plan)
	}
	if code == "" {
		return nil, nil
	}
	return nil, domain.ErrInvalidCoupon
}

func (s *stubCoupons) IssuePersonal(ctx context.Context, percent, validDays int, plans string) (string, error) {
	return "PERSONAL01", nil
}

type stubTariffs struct{}

var _ usecase.TariffUseCase = (*stubTariffs)(nil)

func (s *stubTariffs) List(ctx context.Context) ([]*model.Tariff, error) {
	return []*model.Tariff{{Days: 30, Name: "1 month", Price: "20"}}, nil
}

type stubStats struct{}

var _ usecase.StatsUseCase = (*stubStats)(nil)

func (s *stubStats) Totals(ctx context.Context) (int, error) { return 42, nil }

func (s *stubStats) Revenue(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	return decimal.RequireFromString("100.50"),
		decimal.RequireFromString("400.25"),
		decimal.RequireFromString("5000"), nil
}

// --- Harness ---

type testServer struct {
	*Server
	payment *stubFlow
	trial   *stubFlow
	pages   *stubPages
	coupons *stubCoupons
	enc     *security.EncryptionService
	auth    *AuthManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	bundle, err := i18n.NewBundle(i18n.LocalesFS)
	if err != nil {
		t.Fatalf("i18n bundle: %v", err)
	}
	enc, err := security.NewEncryptionService("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("encryption: %v", err)
	}
	auth := NewAuthManager("test-jwt-secret", "hunter2", false, "", 30*time.Minute)
	logger := zerolog.Nop()

	ts := &testServer{
		payment: &stubFlow{},
		trial:   &stubFlow{},
		pages:   &stubPages{},
		coupons: &stubCoupons{},
		enc:     enc,
		auth:    auth,
	}
	ts.Server = NewServer(
		ts.payment, ts.trial, ts.pages, ts.coupons, &stubTariffs{}, &stubStats{},
		enc, auth, bundle, "https://www.example.com", &logger,
	)
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestCreateFreekassa_Success(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/payment/create/freekassa?email=u@example.com&plan=30&currency=freekassa", nil)
	rec := ts.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var res model.CreateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if res.PaymentURL != "https://pay.example.com/1" || res.ID != "t-1" {
		t.Fatalf("got %+v", res)
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == emailCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("email cookie not set")
	}
}

func TestCreateFreekassa_RateLimitRedirect(t *testing.T) {
	ts := newTestServer(t)
	ts.payment.CreateFunc = func(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error) {
		return nil, domain.ErrRateLimited
	}

	req := httptest.NewRequest(http.MethodGet, "/en/payment/create/freekassa?email=u@example.com&plan=30", nil)
	rec := ts.do(t, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://www.example.com/en/vpn/payment/fail" {
		t.Fatalf("redirect location %q", loc)
	}
}

func TestCreateFreekassa_LangPrefixPassedThrough(t *testing.T) {
	ts := newTestServer(t)

	var gotLang string
	ts.payment.CreateFunc = func(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error) {
		gotLang = pc.Lang
		return &model.CreateResult{UseForm: 1, ID: "t-1"}, nil
	}

	ts.do(t, httptest.NewRequest(http.MethodGet, "/ru/payment/create/freekassa?email=u@example.com&plan=30", nil))
	if gotLang != "ru" {
		t.Fatalf("lang %q, want ru", gotLang)
	}

	// unsupported prefix falls back to English
	ts.do(t, httptest.NewRequest(http.MethodGet, "/xx/payment/create/freekassa?email=u@example.com&plan=30", nil))
	if gotLang != "en" {
		t.Fatalf("lang %q, want en fallback", gotLang)
	}
}

func TestCreateTrial(t *testing.T) {
	ts := newTestServer(t)

	var gotCurrency string
	ts.trial.CreateFunc = func(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error) {
		gotCurrency = pc.Currency
		return &model.CreateResult{}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/payment/create/trial", strings.NewReader(`{"email":"u@example.com"}`))
	rec := ts.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if gotCurrency != "free" {
		t.Fatalf("currency %q, want free", gotCurrency)
	}
	if !strings.Contains(rec.Body.String(), `"status":"OK"`) {
		t.Fatalf("body %s", rec.Body.String())
	}
}

func TestConfirmation_LiteralBody(t *testing.T) {
	ts := newTestServer(t)

	var gotOrder string
	ts.payment.ConfirmFunc = func(ctx context.Context, payload *model.ConfirmPayload) string {
		gotOrder = payload.OrderID
		return "YES"
	}

	req := httptest.NewRequest(http.MethodGet, "/payment/confirmation/freekassa?MERCHANT_ORDER_ID=t-9&AMOUNT=20&SIGN=x&MERCHANT_ID=1", nil)
	rec := ts.do(t, req)

	if rec.Body.String() != "YES" {
		t.Fatalf("body %q, want YES", rec.Body.String())
	}
	if gotOrder != "t-9" {
		t.Fatalf("order id %q", gotOrder)
	}
}

func TestConfirmation_NonNumericAmountRejectedAtBoundary(t *testing.T) {
	ts := newTestServer(t)
	ts.payment.ConfirmFunc = func(ctx context.Context, payload *model.ConfirmPayload) string {
		t.Fatal("flow reached with malformed payload")
		return ""
	}

	req := httptest.NewRequest(http.MethodGet, "/payment/confirmation/freekassa?MERCHANT_ORDER_ID=t-9&AMOUNT=abc", nil)
	rec := ts.do(t, req)

	if !strings.HasPrefix(rec.Body.String(), "ERROR: ") {
		t.Fatalf("body %q", rec.Body.String())
	}
}

func TestCheckCoupon_TriState(t *testing.T) {
	ts := newTestServer(t)
	ts.coupons.EvaluateFunc = func(ctx context.Context, code string, plan int) (*model.CouponCheck, error) {
		switch code {
		case "":
			return nil, nil
		case "SAVE10":
			return &model.CouponCheck{Percent: 10, Prolong: 5}, nil
		default:
			return nil, domain.ErrInvalidCoupon
		}
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/payment/check_coupon", nil))
	if strings.TrimSpace(rec.Body.String()) != "1" {
		t.Fatalf("empty coupon: body %q, want 1", rec.Body.String())
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/payment/check_coupon?coupon=NOPE", nil))
	if strings.TrimSpace(rec.Body.String()) != "0" {
		t.Fatalf("invalid coupon: body %q, want 0", rec.Body.String())
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/payment/check_coupon?coupon=SAVE10&tariff=30", nil))
	var cc model.CouponCheck
	if err := json.Unmarshal(rec.Body.Bytes(), &cc); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if cc.Percent != 10 || cc.Prolong != 5 {
		t.Fatalf("got %+v", cc)
	}
}

func TestSuccess_DecryptsEmailCookie(t *testing.T) {
	ts := newTestServer(t)

	var gotEmail string
	ts.pages.SuccessFunc = func(ctx context.Context, email, emailCookie string) (*model.PageMessage, error) {
		gotEmail = email
		return &model.PageMessage{Message: "ok", Email: email}, nil
	}

	cookie, err := ts.enc.Encrypt("u@example.com")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/payment/success?email_cookie="+cookie, nil)
	rec := ts.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if gotEmail != "u@example.com" {
		t.Fatalf("decrypted email %q", gotEmail)
	}
}

func TestAdminStats_AuthRequired(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status %d, want 401", rec.Code)
	}

	// log in, then reuse the bearer token
	login := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"password":"hunter2"}`))
	loginRec := ts.do(t, login)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login status %d", loginRec.Code)
	}
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(loginRec.Body.Bytes(), &tok); err != nil || tok.Token == "" {
		t.Fatalf("login body %s", loginRec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec = ts.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"total_users":42`) {
		t.Fatalf("body %s", rec.Body.String())
	}
	// Revenue keeps cents instead of rounding to whole units.
	if !strings.Contains(rec.Body.String(), `"week":"100.5"`) {
		t.Fatalf("body %s", rec.Body.String())
	}

	badLogin := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"password":"wrong"}`))
	if rec := ts.do(t, badLogin); rec.Code != http.StatusForbidden {
		t.Fatalf("bad login status %d, want 403", rec.Code)
	}
}
