// Package service holds outbound collaborators of the API: the mail
// queue publisher and the SMTP sender used by the background consumer.
package service

import (
	"fmt"
	"net/smtp"
	"os"
)

// MailSender delivers plain-text mail over SMTP. When SMTP_HOST or
// SMTP_SENDER are unset the sender is not configured and Send becomes a
// logged no-op upstream; this mirrors development environments where
// tokens are echoed in API responses instead of mailed.
type MailSender struct {
	host     string
	port     string
	username string
	password string
	sender   string
}

// NewMailSenderFromEnv builds a MailSender from SMTP_* environment
// variables.
func NewMailSenderFromEnv() *MailSender {
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &MailSender{
		host:     os.Getenv("SMTP_HOST"),
		port:     port,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		sender:   os.Getenv("SMTP_SENDER"),
	}
}

// Configured reports whether enough settings are present to attempt
// delivery.
func (m *MailSender) Configured() bool {
	return m.host != "" && m.sender != ""
}

// Send delivers one message. An unconfigured sender returns an error so
// the consumer logs and rejects the job instead of silently dropping
// it.
func (m *MailSender) Send(to, subject, bodyText string) error {
	if !m.Configured() {
		return fmt.Errorf("smtp not configured")
	}
	msg := []byte("From: " + m.sender + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + bodyText + "\r\n")

	addr := m.host + ":" + m.port
	var auth smtp.Auth
	if m.username != "" && m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.sender, []string{to}, msg)
}
