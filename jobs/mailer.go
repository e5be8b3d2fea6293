package jobs

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig points at the outbound mail relay (Mailpit in dev).
type SMTPConfig struct {
	Addr string
	From string
}

type smtpMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer builds a Mailer over plain SMTP without auth, which is
// what a local relay or sidecar expects.
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(m.cfg.Addr, nil, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("jobs: send mail to %s: %w", to, err)
	}
	return nil
}
