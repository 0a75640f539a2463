package adapter

import "context"

// Mail is a fully rendered transactional message. Template rendering and SMTP
// delivery live outside this service; the port only carries the contract.
type Mail struct {
	To      string
	Subject string
	Body    string
	Lang    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}
