// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"

	"github.com/taibuivan/plume/internal/content/review"
	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/internal/platform/ctxutil"
	"github.com/taibuivan/plume/internal/verification/submission"
)

// Memory implements [Transactor] over in-process stores.
//
// Transactions are serialized by a one-slot semaphore. Writes through
// [Memory.Stores] take the same semaphore, so a rollback never discards them.
// Reads do not take it and may observe a transaction in flight. The exported
// store fields bypass the gate and are meant for seeding.
type Memory struct {
	gate chan struct{}

	Authors       *author.MemoryStore
	Submissions   *submission.MemoryStore
	Content       *review.MemoryStore
	Notifications *notification.MemoryStore
}

// NewMemory creates a [Memory] with empty stores.
func NewMemory() *Memory {
	return &Memory{
		gate:          make(chan struct{}, 1),
		Authors:       author.NewMemoryStore(),
		Submissions:   submission.NewMemoryStore(),
		Content:       review.NewMemoryStore(),
		Notifications: notification.NewMemoryStore(),
	}
}

// Stores implements [Transactor]. Writes on the returned stores wait for the gate.
func (memory *Memory) Stores() Stores {
	return Stores{
		Authors:       gatedAuthors{Store: memory.Authors, memory: memory},
		Submissions:   gatedSubmissions{Store: memory.Submissions, memory: memory},
		Content:       gatedContent{Store: memory.Content, memory: memory},
		Notifications: gatedNotifications{Store: memory.Notifications, memory: memory},
	}
}

// raw returns the ungated stores handed to a transaction that already holds the gate.
func (memory *Memory) raw() Stores {
	return Stores{
		Authors:       memory.Authors,
		Submissions:   memory.Submissions,
		Content:       memory.Content,
		Notifications: memory.Notifications,
	}
}

/*
RunInTx executes fn with all-or-nothing semantics.

Description: Every store is checkpointed before fn runs. If fn fails, panics
or outlives the transaction deadline, all checkpoints are restored.

Parameters:
  - ctx: context.Context
  - fn: TxFunc

Returns:
  - error: fn's error, or SERVICE_UNAVAILABLE when the deadline passes
*/
func (memory *Memory) RunInTx(ctx context.Context, fn TxFunc) error {
	ctx, cancel := ctxutil.EnsureDeadline(ctx, constants.TxTimeout)
	defer cancel()

	if err := memory.acquire(ctx); err != nil {
		return err
	}
	defer memory.release()

	restores := []func(){
		memory.Authors.Checkpoint(),
		memory.Submissions.Checkpoint(),
		memory.Content.Checkpoint(),
		memory.Notifications.Checkpoint(),
	}
	rollback := func() {
		for _, restore := range restores {
			restore()
		}
	}

	committed := false
	defer func() {
		if !committed {
			rollback()
		}
	}()

	if err := fn(ctx, memory.raw()); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return apperr.ServiceUnavailable("Transaction timed out")
	}

	committed = true
	return nil
}

// write runs a single store write under the gate.
func (memory *Memory) write(ctx context.Context, fn func() error) error {
	ctx, cancel := ctxutil.EnsureDeadline(ctx, constants.TxTimeout)
	defer cancel()

	if err := memory.acquire(ctx); err != nil {
		return err
	}
	defer memory.release()

	return fn()
}

func (memory *Memory) acquire(ctx context.Context) error {
	select {
	case memory.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperr.ServiceUnavailable("Storage is busy, please retry")
	}
}

func (memory *Memory) release() { <-memory.gate }
