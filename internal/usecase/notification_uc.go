package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/domain/ports/adapter"
	"vpn-subscription-backend/internal/domain/ports/repository"
	"vpn-subscription-backend/internal/infra/i18n"
	"vpn-subscription-backend/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

const (
	reminderBatchLimit    = 500
	newCustomerSinceDays  = 7
	newCustomerBatchLimit = 500

	// Monthly customers approaching expiry are offered a short-lived
	// discount on the long plans.
	upsellSourcePlanDays = 30
	upsellLeadDays       = 7
	upsellPercent        = 35
	upsellCouponDays     = 1
	upsellPlans          = "180,360"
	upsellBatchLimit     = 500
)

type NotificationUseCase interface {
	// SendExpiryReminders mails paid users whose subscription expires within
	// windowDays, nudging them to renew with their personal coupon.
	SendExpiryReminders(ctx context.Context, windowDays int) (int, error)
	// IssueNewCustomerCoupons assigns and mails a personal discount coupon to
	// recent trial signups that have none yet.
	IssueNewCustomerCoupons(ctx context.Context) (int, error)
	// SendUpsellOffers mails 30-day customers expiring about a week out a
	// one-day coupon for the long plans.
	SendUpsellOffers(ctx context.Context) (int, error)
}

type notificationUC struct {
	users   repository.UserRepository
	coupons CouponUseCase
	mailer  adapter.Mailer
	i18n    *i18n.Bundle
	log     *zerolog.Logger
}

func NewNotificationUseCase(users repository.UserRepository, coupons CouponUseCase, mailer adapter.Mailer, bundle *i18n.Bundle, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{users: users, coupons: coupons, mailer: mailer, i18n: bundle, log: logger}
}

func (u *notificationUC) SendExpiryReminders(ctx context.Context, windowDays int) (int, error) {
	now := time.Now().Unix()
	to := now + int64(windowDays)*secondsPerDay

	users, err := u.users.ListExpiringBetween(ctx, nil, now, to, reminderBatchLimit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		if !user.HasCoupon() {
			continue
		}
		tr := u.i18n.For(user.Lang)
		m := adapter.Mail{
			To:      user.Email,
			Subject: tr.T("email.subjects.reminder"),
			Body: tr.T("email.body.reminder",
				time.Unix(user.Expires, 0).Format("2006-01-02"), user.Coupon),
			Lang: user.Lang,
		}
		if err := u.mailer.Send(ctx, m); err != nil {
			metrics.IncMailSent("reminder", false)
			u.log.Error().Err(err).Msg("reminder mail dispatch failed")
			continue
		}
		metrics.IncMailSent("reminder", true)
		sent++
	}
	return sent, nil
}

func (u *notificationUC) IssueNewCustomerCoupons(ctx context.Context) (int, error) {
	users, err := u.users.ListRecentTrialsWithoutCoupon(ctx, nil, newCustomerSinceDays, newCustomerBatchLimit)
	if err != nil {
		return 0, err
	}

	issued := 0
	for _, user := range users {
		code, err := u.coupons.IssuePersonal(ctx, personalCouponPercent, personalCouponDays, "")
		if err != nil {
			u.log.Error().Err(err).Msg("personal coupon issue failed")
			continue
		}
		user.Coupon = code
		if err := u.users.Update(ctx, nil, user); err != nil {
			u.log.Error().Err(err).Msg("coupon assignment failed")
			continue
		}

		tr := u.i18n.For(user.Lang)
		m := adapter.Mail{
			To:      user.Email,
			Subject: tr.T("email.subjects.new-customer-coupon"),
			Body:    tr.T("email.body.new-customer-coupon", code, personalCouponPercent),
			Lang:    user.Lang,
		}
		if err := u.mailer.Send(ctx, m); err != nil {
			metrics.IncMailSent("new_customer_coupon", false)
			u.log.Error().Err(err).Msg("coupon mail dispatch failed")
			continue
		}
		metrics.IncMailSent("new_customer_coupon", true)
		issued++
	}
	return issued, nil
}

func (u *notificationUC) SendUpsellOffers(ctx context.Context) (int, error) {
	// One day wide at a fixed lead so a daily run mails each customer once.
	now := time.Now().Unix()
	from := now + int64(upsellLeadDays-1)*secondsPerDay
	to := now + int64(upsellLeadDays)*secondsPerDay

	users, err := u.users.ListExpiringBetween(ctx, nil, from, to, upsellBatchLimit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		if user.Plan != upsellSourcePlanDays {
			continue
		}
		code, err := u.coupons.IssuePersonal(ctx, upsellPercent, upsellCouponDays, upsellPlans)
		if err != nil {
			u.log.Error().Err(err).Msg("upsell coupon issue failed")
			continue
		}

		tr := u.i18n.For(user.Lang)
		m := adapter.Mail{
			To:      user.Email,
			Subject: tr.T("email.subjects.upsell"),
			Body:    tr.T("email.body.upsell", code, upsellPercent),
			Lang:    user.Lang,
		}
		if err := u.mailer.Send(ctx, m); err != nil {
			metrics.IncMailSent("upsell", false)
			u.log.Error().Err(err).Msg("upsell mail dispatch failed")
			continue
		}
		metrics.IncMailSent("upsell", true)
		sent++
	}
	return sent, nil
}
