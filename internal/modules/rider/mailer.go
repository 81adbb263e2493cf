// README: Passcode delivery over SMTP or to the log.
package rider

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer sends through host:port with PLAIN auth when a username is set.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	m := &SMTPMailer{addr: fmt.Sprintf("%s:%d", host, port), from: from}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *SMTPMailer) SendOTP(_ context.Context, email, code string, ttl time.Duration) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	b.WriteString("Subject: Your FlashTaxi sign-in code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Your sign-in code is %s. It expires in %d minutes.\r\n", code, int(ttl.Minutes()))
	return smtp.SendMail(m.addr, m.auth, m.from, []string{email}, []byte(b.String()))
}

// LogMailer writes the passcode to the log. Development only.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendOTP(_ context.Context, email, code string, ttl time.Duration) error {
	m.log.Info("otp email", "to", email, "code", code, "ttl", ttl.String())
	return nil
}
