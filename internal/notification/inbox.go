// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notification

import (
	"context"

	"github.com/taibuivan/plume/pkg/pagination"
)

// Inbox serves the notification feed polled by the bell.
type Inbox struct {
	store Store
}

// NewInbox creates an [Inbox].
func NewInbox(store Store) *Inbox {
	return &Inbox{store: store}
}

// List returns one page of the recipient's feed.
func (service *Inbox) List(ctx context.Context, recipient Recipient, unreadOnly bool, params pagination.Params) (pagination.Page[*Notification], error) {
	items, total, err := service.store.List(ctx, recipient, unreadOnly, params.Limit, params.Offset())
	if err != nil {
		return pagination.Page[*Notification]{}, err
	}
	return pagination.NewPage(items, params, total), nil
}

// MarkRead flags a notification as read.
func (service *Inbox) MarkRead(ctx context.Context, recipient Recipient, id string) error {
	return service.store.MarkRead(ctx, recipient, id)
}

// Delete removes a notification.
func (service *Inbox) Delete(ctx context.Context, recipient Recipient, id string) error {
	return service.store.Delete(ctx, recipient, id)
}

// UnreadCount returns the badge count.
func (service *Inbox) UnreadCount(ctx context.Context, recipient Recipient) (int, error) {
	return service.store.UnreadCount(ctx, recipient)
}
