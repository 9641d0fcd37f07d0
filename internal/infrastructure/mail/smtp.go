// Package mail delivers verification emails.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/askly/accounts-api/internal/core/ports"
)

const verificationSubject = "Confirm your email address"

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPMailer sends verification emails through an SMTP relay.
type SMTPMailer struct {
	cfg       SMTPConfig
	verifyURL string
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig, verifyURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, verifyURL: verifyURL, send: smtp.SendMail}
}

// SendVerification composes and sends the verification email for msg.
func (m *SMTPMailer) SendVerification(ctx context.Context, msg ports.VerificationEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link, err := VerificationLink(m.verifyURL, msg.UserID, msg.Token)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.From, msg.Email, verificationSubject, verificationBody(msg.Username, link),
	)
	if err := m.send(addr, auth, m.cfg.From, []string{msg.Email}, []byte(body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
