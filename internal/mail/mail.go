// Package mail sends transactional email through Resend. Callers treat
// delivery as fire-and-forget; failures are logged, never retried.
package mail

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type ResendSender struct {
	client    *resend.Client
	fromEmail string
}

// NewResendSender returns a sender backed by the Resend API. With an
// empty key the sender only logs, which is what local development wants.
func NewResendSender(apiKey, fromEmail string) *ResendSender {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	return &ResendSender{client: client, fromEmail: fromEmail}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	if s.client == nil {
		log.Printf("Email skipped (no API key): to=%s subject=%q", to, subject)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
