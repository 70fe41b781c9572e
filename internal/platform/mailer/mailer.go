// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mailer delivers transactional email (one-time codes).

Two implementations exist: [SMTPMailer] for real delivery and [LogMailer],
which writes the message to the structured log and is selected when no SMTP
host is configured (local development).
*/
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
)

// Mailer sends a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPOptions holds the relay settings.
type SMTPOptions struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

// SMTPMailer relays mail through an SMTP server with optional PLAIN auth.
type SMTPMailer struct {
	options SMTPOptions
	send    func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates an [SMTPMailer].
func NewSMTPMailer(options SMTPOptions) *SMTPMailer {
	return &SMTPMailer{options: options, send: smtp.SendMail}
}

// Send implements [Mailer].
//
// net/smtp has no context support; ctx is only checked before dialing.
func (mailer *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp_send_cancelled: %w", err)
	}

	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("smtp_send_failed: header injection in recipient or subject")
	}

	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		mailer.options.From, to, subject, body)

	var auth smtp.Auth
	if mailer.options.Username != "" {
		auth = smtp.PlainAuth("", mailer.options.Username, mailer.options.Password, mailer.options.Host)
	}

	addr := net.JoinHostPort(mailer.options.Host, mailer.options.Port)
	if err := mailer.send(addr, auth, mailer.options.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("smtp_send_failed: %w", err)
	}
	return nil
}

// LogMailer logs messages instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a [LogMailer].
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send implements [Mailer].
func (mailer *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	mailer.logger.InfoContext(ctx, "mail_logged",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
