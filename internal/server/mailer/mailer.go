// Package mailer sends the portal's transactional email: credentials for
// admin-created accounts and review notifications.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/sealdrop/internal/logging"
)

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// sendMail is a seam for tests.
var sendMail = smtp.SendMail

// SMTPOptions configures an SMTP mailer.
type SMTPOptions struct {
	Host     string
	Port     int64
	User     string
	Password string
	From     string
}

// SMTPMailer sends mail through a single SMTP relay with PLAIN auth.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// New returns an SMTP mailer, or a logging no-op when no host is configured.
func New(o SMTPOptions, log logging.Logger) Mailer {
	if o.Host == "" {
		return &LogMailer{log: log.With("module", "mailer")}
	}
	var auth smtp.Auth
	if o.User != "" {
		auth = smtp.PlainAuth("", o.User, o.Password, o.Host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(o.Host, strconv.FormatInt(o.Port, 10)),
		auth: auth,
		from: o.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("mailer: header injection in recipient or subject")
	}
	msg := buildMessage(m.from, to, subject, body)
	if err := sendMail(m.addr, m.auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer records messages in the log instead of sending them. Used when
// SMTP is not configured. Bodies are not logged, they may carry credentials.
type LogMailer struct {
	log logging.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, subject, _ string) error {
	m.log.Info(ctx, "mail not sent, smtp disabled", "to", to, "subject", subject)
	return nil
}
