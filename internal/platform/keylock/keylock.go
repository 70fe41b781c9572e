// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package keylock serializes work on a single entity key inside one process.

Every lifecycle mutation (Review, Submit, IssueChallenge) runs while holding the
lock of its entity key (submission id, content id, OTP identifier). Keys are
hashed onto a fixed array of shards, so memory use stays constant no matter how
many entities exist. Two unrelated keys may share a shard; that only costs
throughput, never correctness.

Locks are not reentrant: a caller must never take a second key while holding one.

Cross-process safety is provided by the stores themselves (conditional updates
and optimistic transactions); this lock removes in-process contention before it
reaches the database.
*/
package keylock

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/internal/platform/ctxutil"
)

// numShards is the number of independent mutexes.
const numShards = 256

// Locker hands out per-key critical sections.
type Locker struct {
	shards  [numShards]chan struct{}
	timeout time.Duration
}

// New builds a [Locker]. A zero timeout falls back to [constants.TxTimeout].
func New(timeout time.Duration) *Locker {
	if timeout <= 0 {
		timeout = constants.TxTimeout
	}
	locker := &Locker{timeout: timeout}
	for i := range locker.shards {
		locker.shards[i] = make(chan struct{}, 1)
	}
	return locker
}

/*
Do runs fn while holding the lock for key.

Description: Waiting for the lock honours ctx cancellation and the locker timeout,
so no caller blocks indefinitely behind a stuck transaction.

Parameters:
  - ctx: context.Context
  - key: string (entity key, e.g. "submission:<id>")
  - fn: func(context.Context) error

Returns:
  - error: the error returned by fn, or SERVICE_UNAVAILABLE when the lock could not be acquired
*/
func (locker *Locker) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ctx, cancel := ctxutil.EnsureDeadline(ctx, locker.timeout)
	defer cancel()

	shard := locker.shards[shardOf(key)]

	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		unavailable := apperr.ServiceUnavailable("The resource is busy, please retry")
		unavailable.Cause = fmt.Errorf("keylock_acquire_%s: %w", key, ctx.Err())
		return unavailable
	}
	defer func() { <-shard }()

	return fn(ctx)
}

// shardOf maps key onto a shard index using FNV-1a.
func shardOf(key string) int {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(key))
	return int(hasher.Sum32() % numShards)
}

// Key joins an entity kind and id into a lock key.
func Key(kind, id string) string {
	return kind + ":" + id
}
