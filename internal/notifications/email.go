package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"eventhub/internal/shared/config"
	"eventhub/pkg/logger"
)

// EmailService sends transactional mail over SMTP. With no SMTP host
// configured it logs instead of sending, which keeps local development
// working without a mail relay.
type EmailService struct {
	cfg config.EmailConfig
	log *logger.Logger
}

func NewEmailService(cfg config.EmailConfig, log *logger.Logger) *EmailService {
	return &EmailService{cfg: cfg, log: log}
}

// SendOTP delivers an email verification code.
func (s *EmailService) SendOTP(ctx context.Context, email, code string) error {
	body := fmt.Sprintf(
		"Your EventHub verification code is %s.\r\n\r\nIt expires shortly. If you did not request this, ignore this email.\r\n",
		code,
	)
	return s.send(ctx, email, "Your EventHub verification code", body)
}

// SendNotification delivers a notification message as email.
func (s *EmailService) SendNotification(ctx context.Context, email string, msg *Message) error {
	var body strings.Builder
	switch msg.Type {
	case TypeBookingConfirmed:
		fmt.Fprintf(&body, "Your booking for %s is confirmed.\r\n\r\n", msg.EventTitle)
		fmt.Fprintf(&body, "Reference: %s\r\nTickets: %d\r\nTotal: %.2f\r\n", msg.BookingRef, msg.Quantity, msg.TotalPrice)
	case TypeBookingCancelled:
		fmt.Fprintf(&body, "Your booking %s for %s has been cancelled.\r\n", msg.BookingRef, msg.EventTitle)
	case TypeEventCancelled:
		fmt.Fprintf(&body, "The event %s has been cancelled. Your booking no longer applies.\r\n", msg.EventTitle)
	default:
		fmt.Fprintf(&body, "You have a new notification from EventHub.\r\n")
	}
	return s.send(ctx, email, msg.Subject(), body.String())
}

func (s *EmailService) send(ctx context.Context, to, subject, body string) error {
	if s.cfg.SMTPHost == "" {
		s.log.Info("Email delivery skipped, no SMTP host configured",
			"to", to,
			"subject", subject,
		)
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.FromEmail, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
