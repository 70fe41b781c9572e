// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/plume/pkg/clock"
)

// MutateFunc computes the next state of a challenge from the current one.
//
// current is nil when no challenge exists for the identifier (or its retention
// elapsed). A non-nil returned challenge is persisted even when err is non-nil,
// which lets a failed verification still record the attempt counter.
type MutateFunc func(current *Challenge) (next *Challenge, err error)

// Store holds at most one challenge per identifier.
type Store interface {
	// Mutate atomically reads, transforms and writes the challenge for identifier.
	Mutate(ctx context.Context, identifier string, fn MutateFunc) error
}

// # In-Memory Store

// MemoryStore implements [Store] with a map. Records are dropped once
// retention has passed beyond their expiry, mirroring the Redis key TTL.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]*Challenge
	clock      clock.Clock
	retention  time.Duration
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore(clk clock.Clock, retention time.Duration) *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]*Challenge),
		clock:      clk,
		retention:  retention,
	}
}

// Mutate implements [Store].
func (store *MemoryStore) Mutate(_ context.Context, identifier string, fn MutateFunc) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	current := store.challenges[identifier]
	if current != nil && store.clock.Now().After(retainUntil(current, store.retention)) {
		delete(store.challenges, identifier)
		current = nil
	}

	next, err := fn(current.clone())
	if next != nil {
		store.challenges[identifier] = next.clone()
	}
	return err
}

// retainUntil is the moment a record may be forgotten.
func retainUntil(challenge *Challenge, retention time.Duration) time.Time {
	until := challenge.ExpiresAt
	if challenge.CooldownUntil.After(until) {
		until = challenge.CooldownUntil
	}
	return until.Add(retention)
}
