package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridPath = "/v3/mail/send"

type SendGridConfig struct {
	APIKey  string
	BaseURL string
	From    Address
	Timeout time.Duration
}

type SendGridSender struct {
	cfg SendGridConfig
}

func NewSendGridSender(cfg SendGridConfig) *SendGridSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &SendGridSender{cfg: cfg}
}

func (s *SendGridSender) message(to, subject, body string) *sgmail.SGMailV3 {
	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(s.cfg.From.Name, s.cfg.From.Email))
	m.Subject = subject

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail("", to))
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", body))
	return m
}

// Send builds a request per call; the sendgrid.Client shares one mutable
// request body and cannot be used from several workers.
func (s *SendGridSender) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return ErrNoRecipient
	}

	request := sendgrid.GetRequest(s.cfg.APIKey, sendGridPath, s.cfg.BaseURL)
	request.Method = rest.Post
	request.Body = sgmail.GetRequestBody(s.message(to, subject, body))

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	return nil
}
