// Package resend sends email through the Resend API.
package resend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// sender is the subset of the Resend emails service the mailer uses.
type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type Mailer struct {
	emails sender
	from   string
}

// NewMailer returns a Resend-backed mailer. apiKey must be set.
func NewMailer(apiKey, from string) (*Mailer, error) {
	if apiKey == "" {
		return nil, errors.New("email service not configured (missing RESEND_API_KEY)")
	}
	client := resend.NewClient(apiKey)
	return &Mailer{emails: client.Emails, from: from}, nil
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	resp, err := m.emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	slog.Info("email sent", "provider", "resend", "to", to, "id", resp.Id)
	return nil
}
