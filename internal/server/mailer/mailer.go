// Package mailer sends plain-text notification e-mails.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/admissions/internal/logging"
)

// Mailer delivers a single message. Callers treat delivery as best effort.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

var sendMail = smtp.SendMail

type SMTPOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// Bcc receives a blind copy of every message.
	Bcc []string
}

// SMTPMailer delivers through an SMTP relay, authenticating with PLAIN
// when a user is configured.
type SMTPMailer struct {
	opts SMTPOptions
}

func NewSMTPMailer(opts SMTPOptions) *SMTPMailer {
	return &SMTPMailer{opts: opts}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.opts.User != "" {
		auth = smtp.PlainAuth("", m.opts.User, m.opts.Password, m.opts.Host)
	}

	addr := net.JoinHostPort(m.opts.Host, strconv.Itoa(m.opts.Port))
	rcpt := append([]string{headerSafe(to)}, m.opts.Bcc...)
	msg := buildMessage(m.opts.From, to, subject, body)

	if err := sendMail(addr, auth, m.opts.From, rcpt, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + headerSafe(from) + "\r\n")
	b.WriteString("To: " + headerSafe(to) + "\r\n")
	b.WriteString("Subject: " + headerSafe(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// headerSafe strips line breaks so values cannot inject extra headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info(ctx, "mail not sent, smtp disabled", "to", to, "subject", subject, "body_bytes", len(body))
	return nil
}

// New returns an SMTPMailer when opts.Host is set and a LogMailer otherwise.
func New(opts SMTPOptions, log logging.Logger) Mailer {
	if opts.Host == "" {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(opts)
}
