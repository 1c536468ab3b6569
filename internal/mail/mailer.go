package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/notes-service/internal/config"
)

// Mailer dispatches transactional email. Implementations are awaited before
// the HTTP response goes out but no retry happens on failure.
type Mailer interface {
	SendOTP(ctx context.Context, toEmail, code string) error
}

// SMTPMailer delivers mail over an authenticated SMTP connection.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	logger *zap.Logger
}

// NewSMTPMailer builds a mailer from SMTP configuration.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) (*SMTPMailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From, logger: logger}, nil
}

// SendOTP emails a one-time code. The code never appears in logs.
func (m *SMTPMailer) SendOTP(ctx context.Context, toEmail, code string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject("Your OTP Code")
	msg.SetBodyString(gomail.TypeTextHTML, fmt.Sprintf("<h1>Your OTP is %s</h1>", code))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error("otp mail dispatch failed", zap.String("to", toEmail), zap.Error(err))
		return err
	}
	m.logger.Info("otp mail dispatched", zap.String("to", toEmail))
	return nil
}

var _ Mailer = (*SMTPMailer)(nil)
