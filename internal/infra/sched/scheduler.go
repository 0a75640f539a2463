package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/config"
	"vpn-subscription-backend/internal/usecase"
)

// jobTimeout bounds a single job run so a stuck mail backend cannot pile up
// overlapping runs forever.
const jobTimeout = 10 * time.Minute

// Scheduler drives the periodic retention jobs: expiry reminders,
// new-customer coupon issuance and long-plan upsell offers.
type Scheduler struct {
	cron          *cron.Cron
	notifications usecase.NotificationUseCase
	cfg           config.CronConfig
	log           *zerolog.Logger
}

func New(notifications usecase.NotificationUseCase, cfg config.CronConfig, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		notifications: notifications,
		cfg:           cfg,
		log:           logger,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, s.runReminders); err != nil {
		return fmt.Errorf("failed to add expiry reminder job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.NewCustomerSpec, s.runNewCustomerCoupons); err != nil {
		return fmt.Errorf("failed to add new-customer coupon job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.UpsellSpec, s.runUpsellOffers); err != nil {
		return fmt.Errorf("failed to add upsell offer job: %w", err)
	}

	s.cron.Start()
	s.log.Info().
		Str("reminder_spec", s.cfg.ReminderSpec).
		Str("new_customer_spec", s.cfg.NewCustomerSpec).
		Str("upsell_spec", s.cfg.UpsellSpec).
		Msg("scheduler started")
	return nil
}

// Stop halts scheduling and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sent, err := s.notifications.SendExpiryReminders(ctx, s.cfg.ReminderWindowDays)
	if err != nil {
		s.log.Error().Err(err).Msg("expiry reminder job failed")
		return
	}
	s.log.Info().Int("sent", sent).Msg("expiry reminders dispatched")
}

func (s *Scheduler) runNewCustomerCoupons() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	issued, err := s.notifications.IssueNewCustomerCoupons(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("new-customer coupon job failed")
		return
	}
	s.log.Info().Int("issued", issued).Msg("new-customer coupons issued")
}

func (s *Scheduler) runUpsellOffers() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sent, err := s.notifications.SendUpsellOffers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("upsell offer job failed")
		return
	}
	s.log.Info().Int("sent", sent).Msg("upsell offers dispatched")
}
