// Package mail sends the two transactional messages the app needs:
// the signup confirmation link and the password-reset link.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers through a plain SMTP relay. Auth is optional;
// leave user empty for an unauthenticated relay.
type SMTPMailer struct {
	Addr string // host:port
	User string
	Pass string
	From string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.User != "" {
		host := m.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.User, m.Pass, host)
	}

	if err := smtp.SendMail(m.Addr, auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer is the development stand-in: it only logs the message so
// confirmation and reset links can be copied from the server output.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	slog.Info("mail_logged",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
