// Package email delivers administrator-facing email notifications over SMTP.
package email

import (
	"context"
	"fmt"

	"inspection_portal_backend/platform/config"

	"github.com/wneessen/go-mail"
)

// Sender is the outbound email contract used by the notification module.
type Sender interface {
	SendWorkOrderCompletedEmail(ctx context.Context, to, condominium, workOrderID string) error
	SendWorkOrderReopenedEmail(ctx context.Context, to, workOrderID, reason string) error
	SendWorkOrderReminderEmail(ctx context.Context, to, workOrderID string) error
}

// SMTPSender sends email through a configured SMTP relay.
type SMTPSender struct {
	client      *mail.Client
	fromAddress string
	fromName    string
}

// NewSMTPSender builds a sender from config. Returns nil (disabled) when
// email is not configured; callers treat a nil Sender as a no-op.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if !cfg.IsEmailEnabled() {
		return nil, nil
	}

	client, err := mail.NewClient(cfg.GetSMTPHost(),
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.GetSMTPUsername()),
		mail.WithPassword(cfg.GetSMTPPassword()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPSender{
		client:      client,
		fromAddress: cfg.GetEmailFromAddress(),
		fromName:    cfg.GetEmailFromName(),
	}, nil
}

func (s *SMTPSender) SendWorkOrderCompletedEmail(ctx context.Context, to, condominium, workOrderID string) error {
	subject := "Work order completed"
	body := fmt.Sprintf(
		"The work order %s for condominium %s has been completed and is ready for review.",
		workOrderID, condominium)
	return s.send(ctx, to, subject, body)
}

func (s *SMTPSender) SendWorkOrderReopenedEmail(ctx context.Context, to, workOrderID, reason string) error {
	subject := "Work order reopened"
	body := fmt.Sprintf(
		"The work order %s has been reopened and needs your attention.\n\nReason: %s",
		workOrderID, reason)
	return s.send(ctx, to, subject, body)
}

func (s *SMTPSender) SendWorkOrderReminderEmail(ctx context.Context, to, workOrderID string) error {
	subject := "Work order still pending"
	body := fmt.Sprintf(
		"A reminder: the work order %s assigned to you has not been completed yet.",
		workOrderID)
	return s.send(ctx, to, subject, body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	if s == nil || s.client == nil {
		return nil
	}

	m := mail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromAddress); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	return s.client.DialAndSendWithContext(ctx, m)
}
