// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notification

import "context"

// Store persists notifications. Every read and mutation is scoped to a recipient.
type Store interface {
	// InsertIfAbsent stores n unless a record with the same idempotency key
	// exists. It returns the stored record and whether it was created.
	InsertIfAbsent(ctx context.Context, n *Notification) (*Notification, bool, error)

	// List returns a page of the recipient's notifications, newest first.
	List(ctx context.Context, recipient Recipient, unreadOnly bool, limit, offset int) ([]*Notification, int, error)

	// MarkRead flags one notification as read. Other inboxes see NOT_FOUND.
	MarkRead(ctx context.Context, recipient Recipient, id string) error

	// Delete removes one notification. Other inboxes see NOT_FOUND.
	Delete(ctx context.Context, recipient Recipient, id string) error

	// UnreadCount returns the number of unread notifications for the recipient.
	UnreadCount(ctx context.Context, recipient Recipient) (int, error)
}
