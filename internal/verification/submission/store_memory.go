// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/pkg/pagination"
)

// MemoryStore implements [Store] in process memory with the same uniqueness
// rules as the SQL schema.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{submissions: make(map[string]*Submission)}
}

// Insert implements [Store].
func (store *MemoryStore) Insert(_ context.Context, submission *Submission) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.submissions {
		if existing.AuthorID != submission.AuthorID || existing.Kind != submission.Kind {
			continue
		}
		if existing.IsPending() && submission.IsPending() {
			return apperr.AlreadyPending(submission.Kind.Label())
		}
		if existing.Version == submission.Version {
			return apperr.Conflict(submission.Kind.Label() + " version already exists")
		}
	}

	store.submissions[submission.ID] = submission.clone()
	return nil
}

// FindByID implements [Store].
func (store *MemoryStore) FindByID(_ context.Context, id string) (*Submission, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	submission, ok := store.submissions[id]
	if !ok {
		return nil, apperr.NotFound("Submission")
	}
	return submission.clone(), nil
}

// Current implements [Store].
func (store *MemoryStore) Current(_ context.Context, authorID string, kind Kind) (*Submission, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	current := store.latest(authorID, kind)
	if current == nil {
		return nil, apperr.NotFound(kind.Label())
	}
	return current.clone(), nil
}

// History implements [Store].
func (store *MemoryStore) History(_ context.Context, authorID string, kind Kind) ([]*Submission, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	history := make([]*Submission, 0)
	for _, submission := range store.submissions {
		if submission.AuthorID == authorID && submission.Kind == kind {
			history = append(history, submission.clone())
		}
	}
	slices.SortFunc(history, func(a, b *Submission) int { return cmp.Compare(b.Version, a.Version) })
	return history, nil
}

// List implements [Store].
func (store *MemoryStore) List(_ context.Context, filter Filter, limit, offset int) ([]*Submission, int, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	matches := make([]*Submission, 0)
	for _, submission := range store.submissions {
		if !store.matches(submission, filter) {
			continue
		}
		matches = append(matches, submission.clone())
	}

	slices.SortFunc(matches, func(a, b *Submission) int {
		if order := b.SubmittedAt.Compare(a.SubmittedAt); order != 0 {
			return order
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return pagination.Window(matches, limit, offset), len(matches), nil
}

// Review implements [Store].
func (store *MemoryStore) Review(_ context.Context, decision Decision) (*Submission, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	existing, ok := store.submissions[decision.SubmissionID]
	if !ok {
		return nil, apperr.NotFound("Submission")
	}
	if !existing.IsPending() {
		return nil, apperr.AlreadyReviewed(existing.Kind.Label())
	}

	reviewed := existing.clone()
	reviewed.Status = decision.Status
	reviewed.RejectionReason = decision.Reason
	reviewed.ReviewedBy = decision.ReviewedBy
	reviewedAt := decision.ReviewedAt
	reviewed.ReviewedAt = &reviewedAt

	store.submissions[reviewed.ID] = reviewed
	return reviewed.clone(), nil
}

// Checkpoint captures the current state and returns a function restoring it.
// Stored values are replaced, never mutated, so a shallow clone is enough.
func (store *MemoryStore) Checkpoint() func() {
	store.mu.RLock()
	saved := maps.Clone(store.submissions)
	store.mu.RUnlock()

	return func() {
		store.mu.Lock()
		store.submissions = saved
		store.mu.Unlock()
	}
}

func (store *MemoryStore) matches(submission *Submission, filter Filter) bool {
	if filter.Kind != "" && submission.Kind != filter.Kind {
		return false
	}
	if filter.Status != "" && submission.Status != filter.Status {
		return false
	}
	if filter.AuthorID != "" && submission.AuthorID != filter.AuthorID {
		return false
	}
	if filter.CurrentOnly {
		latest := store.latest(submission.AuthorID, submission.Kind)
		return latest != nil && latest.ID == submission.ID
	}
	return true
}

// latest must be called with the lock held.
func (store *MemoryStore) latest(authorID string, kind Kind) *Submission {
	var current *Submission
	for _, submission := range store.submissions {
		if submission.AuthorID != authorID || submission.Kind != kind {
			continue
		}
		if current == nil || submission.Version > current.Version {
			current = submission
		}
	}
	return current
}
