// Package mailer delivers account notifications over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/config"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
)

// sender is the part of *mail.Client used here.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPMailer struct {
	client sender
	from   string
	log    *zap.Logger
}

func NewSMTPMailer(cfg *config.Config, log *zap.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.MailPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.MailUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.MailUsername),
			mail.WithPassword(cfg.MailPassword),
		)
	}

	client, err := mail.NewClient(cfg.MailHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.MailFrom, log: log}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info("email delivery disabled, message logged",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// New picks SMTP delivery when a mail host is configured.
func New(cfg *config.Config, log *zap.Logger) (domain.Mailer, error) {
	if cfg.MailHost == "" {
		log.Warn("MAIL_HOST not set, emails will only be logged")
		return NewLogMailer(log), nil
	}
	return NewSMTPMailer(cfg, log)
}
