package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/domain"
	"vpn-subscription-backend/internal/domain/model"
	"vpn-subscription-backend/internal/domain/ports/adapter"
	"vpn-subscription-backend/internal/domain/ports/repository"
	"vpn-subscription-backend/internal/infra/i18n"
	"vpn-subscription-backend/internal/infra/logging"
	"vpn-subscription-backend/internal/infra/metrics"
)

// pendingWindow is how long an unpaid transaction stays claimable by the
// gateway before it is considered abandoned.
const pendingWindow = 72 * time.Hour

// FlowKind selects a payment flow variant.
type FlowKind int

const (
	// FlowStandard creates a gateway invoice and finalizes on webhook.
	FlowStandard FlowKind = iota
	// FlowTrial provisions a zero-cost account with no gateway round trip.
	FlowTrial
	// FlowReadOnly serves only the success/fail landing pages.
	FlowReadOnly
)

// PaymentFlow is the per-variant contract: order creation and webhook
// confirmation. Variants that do not support an operation return
// domain.ErrOperationFailed rather than silently succeeding.
type PaymentFlow interface {
	Create(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error)
	// Confirm handles the gateway webhook. The returned string is the literal
	// body expected by the gateway: "YES" or "ERROR: <reason>".
	Confirm(ctx context.Context, payload *model.ConfirmPayload) string
}

// PaymentCore wires the collaborators shared by every flow variant.
type PaymentCore struct {
	checks      CheckPolicy
	coupons     CouponUseCase
	pricing     PricingUseCase
	users       UserUseCase
	entitlement EntitlementUseCase
	verifier    WebhookVerifier

	trans       repository.TransactionRepository
	usersRepo   repository.UserRepository
	partners    repository.PartnerRepository
	couponsRepo repository.CouponRepository

	gateway adapter.InvoiceGateway
	mailer  adapter.Mailer
	geo     adapter.CountryResolver

	i18n    *i18n.Bundle
	baseURL string
	log     *zerolog.Logger
}

func NewPaymentCore(
	checks CheckPolicy,
	coupons CouponUseCase,
	pricing PricingUseCase,
	users UserUseCase,
	entitlement EntitlementUseCase,
	verifier WebhookVerifier,
	trans repository.TransactionRepository,
	usersRepo repository.UserRepository,
	partners repository.PartnerRepository,
	couponsRepo repository.CouponRepository,
	gateway adapter.InvoiceGateway,
	mailer adapter.Mailer,
	geo adapter.CountryResolver,
	bundle *i18n.Bundle,
	baseURL string,
	logger *zerolog.Logger,
) *PaymentCore {
	return &PaymentCore{
		checks:      checks,
		coupons:     coupons,
		pricing:     pricing,
		users:       users,
		entitlement: entitlement,
		verifier:    verifier,
		trans:       trans,
		usersRepo:   usersRepo,
		partners:    partners,
		couponsRepo: couponsRepo,
		gateway:     gateway,
		mailer:      mailer,
		geo:         geo,
		i18n:        bundle,
		baseURL:     baseURL,
		log:         logger,
	}
}

// NewPaymentFlow dispatches a flow variant over the shared core.
func NewPaymentFlow(kind FlowKind, core *PaymentCore) PaymentFlow {
	switch kind {
	case FlowTrial:
		return &trialFlow{core: core}
	case FlowReadOnly:
		return &readOnlyFlow{}
	default:
		return &standardFlow{core: core}
	}
}

// prepare runs the shared half of order creation: screening, coupon
// resolution, pricing, account provisioning and the pending transaction row.
func (c *PaymentCore) prepare(ctx context.Context, pc *model.PaymentContext) (*model.Transaction, error) {
	if err := c.checks.Screen(ctx, pc); err != nil {
		return nil, err
	}

	cc, err := c.coupons.Evaluate(ctx, pc.Coupon, pc.Plan)
	if err != nil {
		metrics.IncCouponCheck("invalid")
		return nil, err
	}
	percent := 0
	if cc != nil {
		percent = cc.Percent
		metrics.IncCouponCheck("ok")
	}

	amount, err := c.pricing.Quote(ctx, pc, percent)
	if err != nil {
		return nil, err
	}

	user, err := c.users.EnsureByEmail(ctx, pc.Email, pc.Lang, pc.IP, pc.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	trans := &model.Transaction{
		ID:         uuid.NewString(),
		System:     pc.Currency,
		Days:       pc.Plan,
		Amount:     amount,
		Email:      pc.Email,
		Created:    now,
		Expires:    now.Add(pendingWindow),
		Trial:      amount.IsZero(),
		Coupon:     pc.Coupon,
		CountryISO: c.geo.CountryISO(ctx, pc.IP),
		PartnerID:  user.PartnerID,
	}
	if err := c.applyPartnerCommission(ctx, user, trans); err != nil {
		return nil, err
	}

	if err := c.trans.Insert(ctx, nil, trans); err != nil {
		return nil, err
	}
	metrics.IncPayment(trans.System, "created")
	return trans, nil
}

func (c *PaymentCore) applyPartnerCommission(ctx context.Context, user *model.User, trans *model.Transaction) error {
	if user.PartnerID == nil {
		return nil
	}
	partner, err := c.partners.FindByID(ctx, nil, *user.PartnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	trans.PartnerAmount = partner.CommissionOn(trans.Amount)
	return nil
}

// finalize runs the post-verification completion sequence. The conditional
// complete-flag update is the idempotency gate: only the delivery that wins
// it proceeds to entitlement and mail.
func (c *PaymentCore) finalize(ctx context.Context, transID string) error {
	log := logging.With(logging.WithTransID(ctx, transID), c.log)

	trans, err := c.trans.FindByID(ctx, nil, transID)
	if err != nil {
		return err
	}

	won, err := c.trans.CompleteIfPending(ctx, nil, transID)
	if err != nil {
		return err
	}
	if !won {
		metrics.IncPayment(trans.System, "duplicate")
		return domain.ErrAlreadyCompleted
	}

	if trans.Coupon != "" {
		if err := c.couponsRepo.IncrementUsage(ctx, nil, trans.Coupon); err != nil {
			log.Error().Err(err).Msg("coupon usage bump failed")
		}
	}

	user, err := c.entitlement.Apply(ctx, trans)
	if err != nil {
		return err
	}

	if err := c.trans.SetExpires(ctx, nil, transID, time.Unix(user.Expires, 0)); err != nil {
		return err
	}

	c.sendAccessMail(ctx, user)
	metrics.IncPayment(trans.System, "confirmed")
	log.Info().Str("email", logging.Redact(user.Email, false)).Msg("payment finalized")
	return nil
}

func (c *PaymentCore) sendAccessMail(ctx context.Context, user *model.User) {
	tr := c.i18n.For(user.Lang)
	m := adapter.Mail{
		To:      user.Email,
		Subject: tr.T("email.subjects.access"),
		Body:    tr.T("email.body.access", user.Code, user.Password, c.baseURL),
		Lang:    user.Lang,
	}
	if err := c.mailer.Send(ctx, m); err != nil {
		metrics.IncMailSent("access", false)
		c.log.Error().Err(err).Msg("access mail dispatch failed")
		return
	}
	metrics.IncMailSent("access", true)
}

// --- standard flow -------------------------------------------------------

type standardFlow struct {
	core *PaymentCore
}

func (f *standardFlow) Create(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error) {
	trans, err := f.core.prepare(ctx, pc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	inv, err := f.core.gateway.CreateInvoice(ctx, adapter.InvoiceRequest{
		Amount:    trans.Amount,
		Currency:  "USD",
		Email:     pc.Email,
		IP:        pc.IP,
		PaymentID: trans.ID,
	})
	metrics.ObserveInvoiceLatency(f.core.gateway.Name(), time.Since(start).Seconds(), err == nil)
	if err != nil {
		metrics.IncPayment(trans.System, "failed")
		return nil, err
	}

	if inv.InvoiceID != "" {
		if err := f.core.trans.SetRemoteCorrelation(ctx, nil, trans.ID, inv.InvoiceID, "created"); err != nil {
			f.core.log.Error().Err(err).Msg("remote correlation update failed")
		}
	}

	return &model.CreateResult{
		Error:      0,
		UseForm:    1,
		PaymentURL: inv.Location,
		ID:         trans.ID,
		Data:       inv.Location,
	}, nil
}

func (f *standardFlow) Confirm(ctx context.Context, payload *model.ConfirmPayload) string {
	trans, err := f.core.trans.FindByID(ctx, nil, payload.OrderID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		f.core.log.Error().Err(err).Msg("webhook transaction lookup failed")
		return "ERROR: internal error"
	}

	ok, reason := f.core.verifier.Verify(ctx, payload, trans)
	if !ok {
		metrics.IncWebhookRejection(rejectionLabel(reason))
		f.core.log.Warn().Str("order_id", payload.OrderID).Str("reason", reason).Msg("webhook rejected")
		return "ERROR: " + reason
	}

	if err := f.core.finalize(ctx, payload.OrderID); err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			return fmt.Sprintf("ERROR: Already completed %s", payload.OrderID)
		}
		f.core.log.Error().Err(err).Str("order_id", payload.OrderID).Msg("payment finalization failed")
		return "ERROR: internal error"
	}
	return "YES"
}

// --- trial flow ----------------------------------------------------------

type trialFlow struct {
	core *PaymentCore
}

func (f *trialFlow) Create(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error) {
	pc.Currency = "free"
	pc.Plan = 0
	if _, err := f.core.prepare(ctx, pc); err != nil {
		return nil, err
	}
	metrics.IncTrialSignup()
	return &model.CreateResult{Error: 0}, nil
}

func (f *trialFlow) Confirm(ctx context.Context, payload *model.ConfirmPayload) string {
	return "ERROR: unsupported"
}

// --- read-only flow ------------------------------------------------------

// readOnlyFlow backs the success/fail landing pages; it never creates or
// confirms anything.
type readOnlyFlow struct{}

func (f *readOnlyFlow) Create(ctx context.Context, pc *model.PaymentContext) (*model.CreateResult, error) {
	return nil, domain.ErrOperationFailed
}

func (f *readOnlyFlow) Confirm(ctx context.Context, payload *model.ConfirmPayload) string {
	return "ERROR: unsupported"
}

// rejectionLabel folds free-text verification reasons into bounded metric
// label values.
func rejectionLabel(reason string) string {
	switch {
	case len(reason) == 0:
		return "unknown"
	case reason == "transaction is None":
		return "not_found"
	case reason == "Security hash is not in parameters":
		return "missing_sign"
	default:
		switch reason[0] {
		case 'N':
			return "remote_ip"
		case 'A':
			return "already_completed"
		default:
		}
		if len(reason) > 8 && reason[:8] == "Invalid " {
			switch reason[8] {
			case 'I':
				return "invalid_id"
			case 'a':
				if len(reason) > 9 && reason[9] == 'c' {
					return "invalid_account"
				}
				return "invalid_amount"
			case 'h':
				return "invalid_hash"
			}
		}
		return "unknown"
	}
}
