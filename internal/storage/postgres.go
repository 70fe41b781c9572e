// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/plume/internal/content/review"
	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/internal/platform/ctxutil"
	"github.com/taibuivan/plume/internal/platform/postgres"
	"github.com/taibuivan/plume/internal/verification/submission"
)

// Postgres implements [Transactor] on a pgx pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates a [Postgres] transactor.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

// Stores implements [Transactor].
func (transactor *Postgres) Stores() Stores {
	return storesOn(transactor.pool)
}

/*
RunInTx executes fn inside a READ COMMITTED transaction.

Description: Row-level compare-and-swap in the stores gives the
first-writer-wins guarantee, so no stronger isolation is needed. The
transaction is rolled back on any error and bounded by the default
transaction timeout when ctx has no deadline.

Parameters:
  - ctx: context.Context
  - fn: TxFunc

Returns:
  - error: fn's error, or wrapped begin/commit failures
*/
func (transactor *Postgres) RunInTx(ctx context.Context, fn TxFunc) error {
	ctx, cancel := ctxutil.EnsureDeadline(ctx, constants.TxTimeout)
	defer cancel()

	tx, err := transactor.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperr.Internal(fmt.Errorf("tx_begin_failed: %w", err))
	}

	defer func() {
		if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			transactor.logger.ErrorContext(ctx, "tx_rollback_failed", slog.Any("error", rollbackErr))
		}
	}()

	if err := fn(ctx, storesOn(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.ServiceUnavailable("Transaction timed out")
		}
		return apperr.Internal(fmt.Errorf("tx_commit_failed: %w", err))
	}
	return nil
}

func storesOn(db postgres.DBTX) Stores {
	return Stores{
		Authors:       author.NewPostgresStore(db),
		Submissions:   submission.NewPostgresStore(db),
		Content:       review.NewPostgresStore(db),
		Notifications: notification.NewPostgresStore(db),
	}
}
