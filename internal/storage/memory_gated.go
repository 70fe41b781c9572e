// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"time"

	"github.com/taibuivan/plume/internal/content/review"
	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/verification/submission"
)

// # Gated Stores
//
// The stores handed out by [Memory.Stores] take the transaction gate for every
// write, so a single-row write outside a unit of work never interleaves with a
// transaction that may later restore its checkpoints. Reads pass straight through.

type gatedAuthors struct {
	author.Store
	memory *Memory
}

func (store gatedAuthors) Create(ctx context.Context, account *author.Author) error {
	return store.memory.write(ctx, func() error { return store.Store.Create(ctx, account) })
}

func (store gatedAuthors) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	return store.memory.write(ctx, func() error { return store.Store.UpdatePassword(ctx, id, passwordHash, at) })
}

func (store gatedAuthors) UpdateProfile(ctx context.Context, account *author.Author) error {
	return store.memory.write(ctx, func() error { return store.Store.UpdateProfile(ctx, account) })
}

type gatedSubmissions struct {
	submission.Store
	memory *Memory
}

func (store gatedSubmissions) Insert(ctx context.Context, created *submission.Submission) error {
	return store.memory.write(ctx, func() error { return store.Store.Insert(ctx, created) })
}

func (store gatedSubmissions) Review(ctx context.Context, decision submission.Decision) (reviewed *submission.Submission, err error) {
	err = store.memory.write(ctx, func() error {
		reviewed, err = store.Store.Review(ctx, decision)
		return err
	})
	return reviewed, err
}

type gatedContent struct {
	review.Store
	memory *Memory
}

func (store gatedContent) Create(ctx context.Context, record *review.Record) error {
	return store.memory.write(ctx, func() error { return store.Store.Create(ctx, record) })
}

func (store gatedContent) Update(ctx context.Context, record *review.Record, expectedRevision int) error {
	return store.memory.write(ctx, func() error { return store.Store.Update(ctx, record, expectedRevision) })
}

type gatedNotifications struct {
	notification.Store
	memory *Memory
}

func (store gatedNotifications) InsertIfAbsent(ctx context.Context, n *notification.Notification) (stored *notification.Notification, created bool, err error) {
	err = store.memory.write(ctx, func() error {
		stored, created, err = store.Store.InsertIfAbsent(ctx, n)
		return err
	})
	return stored, created, err
}

func (store gatedNotifications) MarkRead(ctx context.Context, recipient notification.Recipient, id string) error {
	return store.memory.write(ctx, func() error { return store.Store.MarkRead(ctx, recipient, id) })
}

func (store gatedNotifications) Delete(ctx context.Context, recipient notification.Recipient, id string) error {
	return store.memory.write(ctx, func() error { return store.Store.Delete(ctx, recipient, id) })
}
