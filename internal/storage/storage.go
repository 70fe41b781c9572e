// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage groups the lifecycle stores behind one unit of work.

A lifecycle transition touches several stores at once (a submission and its
notification, an author and its first KYC version). [Transactor.RunInTx]
hands the callback a [Stores] set bound to a single transaction, so the
writes commit together or not at all.

Two implementations exist:

  - [Memory]: process-local stores; transactions are serialized and rolled
    back by restoring checkpoints.
  - [Postgres]: one pgx transaction per call, stores built on the tx.
*/
package storage

import (
	"context"

	"github.com/taibuivan/plume/internal/content/review"
	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/verification/submission"
)

// Stores is the set of stores a lifecycle operation may touch.
type Stores struct {
	Authors       author.Store
	Submissions   submission.Store
	Content       review.Store
	Notifications notification.Store
}

// TxFunc is the body of a unit of work. Returning an error rolls everything back.
type TxFunc func(ctx context.Context, stores Stores) error

// Transactor runs units of work.
type Transactor interface {
	// RunInTx executes fn inside one transaction bounded by the caller's
	// deadline, or by the default transaction timeout when there is none.
	RunInTx(ctx context.Context, fn TxFunc) error

	// Stores returns non-transactional stores for snapshot reads.
	Stores() Stores
}
