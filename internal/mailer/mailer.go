package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"

	"github.com/localspot/localspot/services"
)

// SMTPMailer implements services.Mailer over plain SMTP with AUTH PLAIN.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPMailer creates a mailer for the given SMTP endpoint.
func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: host + ":" + port,
		auth: smtp.PlainAuth("", user, pass, host),
		from: from,
	}
}

// Send delivers a single plain-text message.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer implements services.Mailer by logging instead of delivering.
// Used in development when no SMTP host is configured.
type LogMailer struct{}

// NewLogMailer creates a LogMailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs the message metadata. The body can contain verification links,
// so it is only emitted at debug level.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("mail suppressed (no SMTP host configured)")
	log.Debug().Str("body", body).Msg("mail body")
	return nil
}

var (
	_ services.Mailer = (*SMTPMailer)(nil)
	_ services.Mailer = (*LogMailer)(nil)
)
