// Package mail delivers plain-text emails through SMTP (go-mail), the
// SendGrid API (sendgrid-go), or the log.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/smartwork/internal"
)

const (
	GmailHost = "smtp.gmail.com"
	GmailPort = 587
)

var ErrNoRecipient = errors.New("mail: recipient is required")

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Address struct {
	Name  string
	Email string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%q <%s>", a.Name, a.Email)
}

// NewSender builds the transport selected by cfg.Provider. When the Gmail
// fallback is enabled and the primary is not Gmail already, failed sends are
// retried once through smtp.gmail.com with the same SMTP credentials.
func NewSender(cfg internal.MailConfig, logger *slog.Logger) (Sender, error) {
	from := Address{Name: cfg.FromName, Email: cfg.FromAddress}

	var primary Sender
	switch cfg.Provider {
	case internal.MailProviderLog:
		return NewLogSender(logger), nil
	case internal.MailProviderSendGrid:
		primary = NewSendGridSender(SendGridConfig{
			APIKey:  cfg.SendGridAPIKey,
			BaseURL: cfg.SendGridURL,
			From:    from,
			Timeout: cfg.Timeout,
		})
	case internal.MailProviderSMTP:
		primary = NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     from,
			Timeout:  cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Provider)
	}

	isGmail := cfg.Provider == internal.MailProviderSMTP && strings.EqualFold(cfg.SMTPHost, GmailHost)
	if !cfg.GmailFallback || isGmail || cfg.SMTPUsername == "" {
		return primary, nil
	}

	gmail := NewSMTPSender(SMTPConfig{
		Host:     GmailHost,
		Port:     GmailPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     from,
		Timeout:  cfg.Timeout,
	})
	return NewFallbackSender(primary, gmail, logger), nil
}

// FallbackSender tries Primary and, when it fails, Secondary once.
type FallbackSender struct {
	primary   Sender
	secondary Sender
	logger    *slog.Logger
}

func NewFallbackSender(primary, secondary Sender, logger *slog.Logger) *FallbackSender {
	return &FallbackSender{primary: primary, secondary: secondary, logger: logger}
}

func (s *FallbackSender) Send(ctx context.Context, to, subject, body string) error {
	err := s.primary.Send(ctx, to, subject, body)
	if err == nil {
		return nil
	}

	s.logger.Warn("primary mail transport failed, trying fallback", "to", to, "error", err)
	if fallbackErr := s.secondary.Send(ctx, to, subject, body); fallbackErr != nil {
		return errors.Join(err, fmt.Errorf("fallback: %w", fallbackErr))
	}
	return nil
}

// LogSender writes mails to the logger instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return ErrNoRecipient
	}
	s.logger.InfoContext(ctx, "mail not delivered (log provider)", "to", to, "subject", subject, "body", body)
	return nil
}
