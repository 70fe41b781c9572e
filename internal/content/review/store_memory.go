// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

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
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Create implements [Store].
func (store *MemoryStore) Create(_ context.Context, record *Record) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.records[record.ContentID]; exists {
		return apperr.Conflict(record.Kind.Label() + " already exists")
	}
	store.records[record.ContentID] = record.Clone()
	return nil
}

// FindByID implements [Store].
func (store *MemoryStore) FindByID(_ context.Context, contentID string) (*Record, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	record, ok := store.records[contentID]
	if !ok {
		return nil, apperr.NotFound("Content")
	}
	return record.Clone(), nil
}

// Update implements [Store].
func (store *MemoryStore) Update(_ context.Context, record *Record, expectedRevision int) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	existing, ok := store.records[record.ContentID]
	if !ok {
		return apperr.NotFound("Content")
	}
	if existing.Revision != expectedRevision {
		return apperr.Conflict(existing.Kind.Label() + " was modified concurrently")
	}

	record.Revision = expectedRevision + 1
	store.records[record.ContentID] = record.Clone()
	return nil
}

// List implements [Store].
func (store *MemoryStore) List(_ context.Context, filter Filter, limit, offset int) ([]*Record, int, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	matches := make([]*Record, 0)
	for _, record := range store.records {
		if filter.Kind != "" && record.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if filter.AuthorID != "" && record.AuthorID != filter.AuthorID {
			continue
		}
		if filter.ParentID != "" && record.ParentID != filter.ParentID {
			continue
		}
		matches = append(matches, record.Clone())
	}

	slices.SortFunc(matches, func(a, b *Record) int {
		if order := b.UpdatedAt.Compare(a.UpdatedAt); order != 0 {
			return order
		}
		return cmp.Compare(b.ContentID, a.ContentID)
	})

	return pagination.Window(matches, limit, offset), len(matches), nil
}

// Checkpoint captures the current state and returns a function restoring it.
func (store *MemoryStore) Checkpoint() func() {
	store.mu.RLock()
	saved := maps.Clone(store.records)
	store.mu.RUnlock()

	return func() {
		store.mu.Lock()
		store.records = saved
		store.mu.Unlock()
	}
}
