package service

import (
	"context"
	"errors"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/iliyamo/pos-backoffice/internal/config"
)

// Mailer delivers password reset messages.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

var errNoEmail = errors.New("account has no email address")

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// SendPasswordReset sends an HTML message containing link to the address to.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	if strings.TrimSpace(to) == "" {
		return errNoEmail
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return m.send(addr, auth, m.cfg.From, []string{to}, resetMessage(m.cfg.From, to, link))
}

func resetMessage(from, to, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Password Reset Request\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(`<p>Click the link below to reset your password:</p><a href="` + link + `">` + link + `</a>`)
	return []byte(b.String())
}
