// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestSMTPMailer_Send verifies the relay address and message headers without a network.
*/
func TestSMTPMailer_Send(t *testing.T) {
	mailer := NewSMTPMailer(SMTPOptions{Host: "smtp.test", Port: "2525", From: "no-reply@plume.app"})

	var capturedAddr string
	var capturedMessage string
	mailer.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		capturedAddr = addr
		capturedMessage = string(msg)
		assert.Equal(t, []string{"ayoub@example.com"}, to)
		return nil
	}

	require.NoError(t, mailer.Send(context.Background(), "ayoub@example.com", "Your code", "123456"))

	assert.Equal(t, "smtp.test:2525", capturedAddr)
	assert.True(t, strings.HasPrefix(capturedMessage, "From: no-reply@plume.app\r\n"))
	assert.True(t, strings.HasSuffix(capturedMessage, "\r\n\r\n123456"))
}

/*
TestSMTPMailer_RejectsHeaderInjection refuses CRLF in header fields.
*/
func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	mailer := NewSMTPMailer(SMTPOptions{Host: "smtp.test", Port: "2525"})
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	err := mailer.Send(context.Background(), "a@b.co\r\nBcc: x@y.z", "Hi", "body")
	assert.Error(t, err)
}
