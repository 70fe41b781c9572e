// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notification records lifecycle notifications for authors and admins.

Records are written by the moderation engine inside the same transaction as the
state change they describe. Each record carries an idempotency key derived from
(recipient, type, source entity, transition version), so replaying a
transition never produces a second notification.

The bell UI polls the feed through [Inbox]; delivery beyond the feed is out of scope.
*/
package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// # Recipients

// RecipientKind says whose inbox a notification lands in.
type RecipientKind string

const (
	RecipientAuthor RecipientKind = "author"
	RecipientAdmin  RecipientKind = "admin"
)

// Recipient identifies one inbox.
type Recipient struct {
	Kind RecipientKind `json:"kind"`
	ID   string        `json:"id"`
}

// AdminInbox is the queue shared by every administrator.
var AdminInbox = Recipient{Kind: RecipientAdmin, ID: "moderation"}

// Author returns the inbox of one author.
func Author(authorID string) Recipient {
	return Recipient{Kind: RecipientAuthor, ID: authorID}
}

// # Types

// Type names a notification template.
type Type string

const (
	TypeWelcome          Type = "welcome"
	TypeKYCSubmitted     Type = "kyc_submitted"
	TypeKYCApproved      Type = "kyc_approved"
	TypeKYCRejected      Type = "kyc_rejected"
	TypePaymentSubmitted Type = "payment_submitted"
	TypePaymentApproved  Type = "payment_approved"
	TypePaymentRejected  Type = "payment_rejected"
	TypeContentSubmitted Type = "content_submitted"
	TypeContentPublished Type = "content_published"
	TypeContentRejected  Type = "content_rejected"
)

// # Domain Entities

// Notification is one inbox entry.
type Notification struct {
	ID                string    `json:"id"`
	Recipient         Recipient `json:"recipient"`
	Type              Type      `json:"type"`
	Message           string    `json:"message"`
	Link              string    `json:"link,omitempty"`
	SourceEntityID    string    `json:"source_entity_id"`
	TransitionVersion int       `json:"transition_version"`
	IdempotencyKey    string    `json:"-"`
	Read              bool      `json:"read"`
	CreatedAt         time.Time `json:"created_at"`
}

// IdempotencyKey derives the dedup key of a notification.
func IdempotencyKey(recipient Recipient, notificationType Type, sourceEntityID string, transitionVersion int) string {
	return strings.Join([]string{
		string(recipient.Kind),
		recipient.ID,
		string(notificationType),
		sourceEntityID,
		strconv.Itoa(transitionVersion),
	}, ":")
}

// # Messages

// Payload carries the values interpolated into a message.
type Payload struct {
	Title  string
	Reason string
	Link   string
}

// Render builds the display message for a notification type.
func Render(notificationType Type, payload Payload) string {
	switch notificationType {
	case TypeWelcome:
		return "Welcome to Plume! Your identity documents are under review."
	case TypeKYCSubmitted:
		return "A KYC submission is waiting for review."
	case TypeKYCApproved:
		return "Your identity has been verified. You can now submit content for review."
	case TypeKYCRejected:
		return "Your identity verification was rejected: " + payload.Reason
	case TypePaymentSubmitted:
		return "A payment method is waiting for review."
	case TypePaymentApproved:
		return "Your payment method has been approved."
	case TypePaymentRejected:
		return "Your payment method was rejected: " + payload.Reason
	case TypeContentSubmitted:
		return fmt.Sprintf("%q is waiting for review.", payload.Title)
	case TypeContentPublished:
		return fmt.Sprintf("%q has been published.", payload.Title)
	case TypeContentRejected:
		return fmt.Sprintf("%q was rejected: %s", payload.Title, payload.Reason)
	}
	return string(notificationType)
}
