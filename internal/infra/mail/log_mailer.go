// Package mail carries the notification dispatch contract. Template
// rendering and SMTP delivery are external collaborators; this adapter hands
// the message off and records the fact.
package mail

import (
	"context"

	"github.com/rs/zerolog"

	"vpn-subscription-backend/internal/domain/ports/adapter"
	"vpn-subscription-backend/internal/infra/logging"
)

var _ adapter.Mailer = (*LogMailer)(nil)

// LogMailer logs outbound mail instead of delivering it. Swapped for the real
// delivery relay in production deployments.
type LogMailer struct {
	from string
	dev  bool
	log  *zerolog.Logger
}

func NewLogMailer(from string, dev bool, logger *zerolog.Logger) *LogMailer {
	return &LogMailer{from: from, dev: dev, log: logger}
}

func (m *LogMailer) Send(_ context.Context, msg adapter.Mail) error {
	m.log.Info().
		Str("from", m.from).
		Str("to", logging.Redact(msg.To, m.dev)).
		Str("subject", msg.Subject).
		Str("lang", msg.Lang).
		Msg("mail: dispatched")
	return nil
}
