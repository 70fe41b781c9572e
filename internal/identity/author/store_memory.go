// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/plume/internal/platform/apperr"
)

// MemoryStore implements [Store] in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	authors map[string]Author
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{authors: make(map[string]Author)}
}

// Create implements [Store].
func (store *MemoryStore) Create(_ context.Context, author *Author) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.authors {
		if existing.Email == author.Email {
			return apperr.Conflict("Email is already registered")
		}
		if strings.EqualFold(existing.Pseudo, author.Pseudo) {
			return apperr.Conflict("Pseudo is already taken")
		}
	}

	store.authors[author.ID] = *author
	return nil
}

// FindByID implements [Store].
func (store *MemoryStore) FindByID(_ context.Context, id string) (*Author, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	author, ok := store.authors[id]
	if !ok {
		return nil, apperr.NotFound("Author")
	}
	return &author, nil
}

// FindByEmail implements [Store].
func (store *MemoryStore) FindByEmail(_ context.Context, email string) (*Author, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, author := range store.authors {
		if author.Email == email {
			return &author, nil
		}
	}
	return nil, apperr.NotFound("Author")
}

// UpdatePassword implements [Store].
func (store *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	author, ok := store.authors[id]
	if !ok {
		return apperr.NotFound("Author")
	}
	author.PasswordHash = passwordHash
	author.UpdatedAt = at
	store.authors[id] = author
	return nil
}

// UpdateProfile implements [Store].
func (store *MemoryStore) UpdateProfile(_ context.Context, updated *Author) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	author, ok := store.authors[updated.ID]
	if !ok {
		return apperr.NotFound("Author")
	}
	author.FirstName = updated.FirstName
	author.LastName = updated.LastName
	author.Phone = updated.Phone
	author.UpdatedAt = updated.UpdatedAt
	store.authors[updated.ID] = author
	return nil
}

// Checkpoint captures the current state and returns a function restoring it.
func (store *MemoryStore) Checkpoint() func() {
	store.mu.RLock()
	saved := maps.Clone(store.authors)
	store.mu.RUnlock()

	return func() {
		store.mu.Lock()
		store.authors = saved
		store.mu.Unlock()
	}
}
