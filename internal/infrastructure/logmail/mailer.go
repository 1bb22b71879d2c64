// Package logmail is a development mailer that writes emails to the log
// instead of sending them.
package logmail

import (
	"context"
	"log/slog"
)

type Mailer struct {
	log *slog.Logger
}

// NewMailer returns a mailer writing to log, or to slog.Default when log is nil.
func NewMailer(log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	return &Mailer{log: log}
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	m.log.InfoContext(ctx, "email sent (dev mode)", "to", to, "subject", subject, "body", htmlBody)
	return nil
}
