// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notification

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/pkg/pagination"
)

// MemoryStore implements [Store] in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Notification
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Notification)}
}

// InsertIfAbsent implements [Store].
func (store *MemoryStore) InsertIfAbsent(_ context.Context, n *Notification) (*Notification, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.items {
		if existing.IdempotencyKey == n.IdempotencyKey {
			return &existing, false, nil
		}
	}

	store.items[n.ID] = *n
	stored := *n
	return &stored, true, nil
}

// List implements [Store].
func (store *MemoryStore) List(_ context.Context, recipient Recipient, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	matches := make([]*Notification, 0)
	for _, item := range store.items {
		if item.Recipient != recipient || (unreadOnly && item.Read) {
			continue
		}
		copied := item
		matches = append(matches, &copied)
	}

	slices.SortFunc(matches, func(a, b *Notification) int {
		if order := b.CreatedAt.Compare(a.CreatedAt); order != 0 {
			return order
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return pagination.Window(matches, limit, offset), len(matches), nil
}

// MarkRead implements [Store].
func (store *MemoryStore) MarkRead(_ context.Context, recipient Recipient, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	item, ok := store.items[id]
	if !ok || item.Recipient != recipient {
		return apperr.NotFound("Notification")
	}
	item.Read = true
	store.items[id] = item
	return nil
}

// Delete implements [Store].
func (store *MemoryStore) Delete(_ context.Context, recipient Recipient, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	item, ok := store.items[id]
	if !ok || item.Recipient != recipient {
		return apperr.NotFound("Notification")
	}
	delete(store.items, id)
	return nil
}

// UnreadCount implements [Store].
func (store *MemoryStore) UnreadCount(_ context.Context, recipient Recipient) (int, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	count := 0
	for _, item := range store.items {
		if item.Recipient == recipient && !item.Read {
			count++
		}
	}
	return count, nil
}

// Checkpoint captures the current state and returns a function restoring it.
func (store *MemoryStore) Checkpoint() func() {
	store.mu.RLock()
	saved := maps.Clone(store.items)
	store.mu.RUnlock()

	return func() {
		store.mu.Lock()
		store.items = saved
		store.mu.Unlock()
	}
}
