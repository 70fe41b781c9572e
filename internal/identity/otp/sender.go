// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/plume/internal/platform/mailer"
)

// MailSender delivers codes by email.
type MailSender struct {
	mailer mailer.Mailer
}

// NewMailSender adapts a [mailer.Mailer] into a [Sender].
func NewMailSender(m mailer.Mailer) *MailSender {
	return &MailSender{mailer: m}
}

// SendCode implements [Sender].
func (sender *MailSender) SendCode(ctx context.Context, identifier string, purpose Purpose, code string, expiresAt time.Time) error {
	subject := "Your Plume verification code"
	if purpose == PurposePasswordReset {
		subject = "Your Plume password reset code"
	}

	body := fmt.Sprintf("Your code is %s.\n\nIt expires at %s UTC. If you did not request it, ignore this email.\n",
		code, expiresAt.UTC().Format("15:04"))

	return sender.mailer.Send(ctx, identifier, subject, body)
}
