//go:build integration

// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/plume/data/migrations"
	"github.com/taibuivan/plume/internal/content/review"
	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/migration"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/locale"
	"github.com/taibuivan/plume/pkg/uuid"
)

func newPostgres(t *testing.T) *storage.Postgres {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("plume"),
		tcpostgres.WithUsername("plume"),
		tcpostgres.WithPassword("plume"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migration.RunUp(dsn, migrations.FS, slog.Default()))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return storage.NewPostgres(pool, slog.Default())
}

func seedAuthor(t *testing.T, ctx context.Context, stores storage.Stores) string {
	t.Helper()
	id := uuid.New()
	require.NoError(t, stores.Authors.Create(ctx, &author.Author{
		ID: id, Email: id + "@example.com", Pseudo: "p" + id[:8], PasswordHash: "x",
		Status: author.StatusActive, Role: "author", CreatedAt: now, UpdatedAt: now,
	}))
	return id
}

/*
TestPostgres_Lifecycle runs the stores against a real schema: uniqueness,
submission CAS, content revision CAS, notification dedup and tx rollback.
*/
func TestPostgres_Lifecycle(t *testing.T) {
	transactor := newPostgres(t)
	ctx := context.Background()
	stores := transactor.Stores()

	authorID := seedAuthor(t, ctx, stores)

	t.Run("author_uniqueness", func(t *testing.T) {
		err := stores.Authors.Create(ctx, &author.Author{
			ID: uuid.New(), Email: authorID + "@example.com", Pseudo: "other", PasswordHash: "x",
			Status: author.StatusActive, Role: "author", CreatedAt: now, UpdatedAt: now,
		})
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("submission_one_pending_and_cas", func(t *testing.T) {
		first := &submission.Submission{
			ID: uuid.New(), AuthorID: authorID, Kind: submission.KindKYC, Version: 1,
			Status: submission.StatusPending, SubmittedAt: now,
			KYC: &submission.KYCFields{CINNumber: "AB123456", DocFront: "s3://f", DocBack: "s3://b", Selfie: "s3://s"},
		}
		require.NoError(t, stores.Submissions.Insert(ctx, first))

		second := *first
		second.ID = uuid.New()
		second.Version = 2
		assert.True(t, apperr.HasCode(stores.Submissions.Insert(ctx, &second), apperr.CodeAlreadyPending))

		var group errgroup.Group
		results := make(chan error, 2)
		for _, status := range []submission.Status{submission.StatusApproved, submission.StatusRejected} {
			group.Go(func() error {
				_, err := stores.Submissions.Review(ctx, submission.Decision{
					SubmissionID: first.ID, Status: status, Reason: "reason", ReviewedBy: "admin", ReviewedAt: now,
				})
				results <- err
				return nil
			})
		}
		require.NoError(t, group.Wait())
		close(results)

		var wins, lost int
		for err := range results {
			switch {
			case err == nil:
				wins++
			case apperr.HasCode(err, apperr.CodeAlreadyReviewed):
				lost++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, 1, lost)

		current, err := stores.Submissions.Current(ctx, authorID, submission.KindKYC)
		require.NoError(t, err)
		assert.Equal(t, first.ID, current.ID)
		assert.NotNil(t, current.KYC)
	})

	t.Run("content_revision_cas", func(t *testing.T) {
		record := &review.Record{
			ContentID: uuid.New(), Kind: review.KindStory, AuthorID: authorID, Status: review.StatusDraft,
			Title: locale.Text{"fr": "Le Phare"}, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, stores.Content.Create(ctx, record))

		stale, err := stores.Content.FindByID(ctx, record.ContentID)
		require.NoError(t, err)

		record.Status = review.StatusPending
		require.NoError(t, stores.Content.Update(ctx, record, 0))
		assert.Equal(t, 1, record.Revision)

		stale.Status = review.StatusArchived
		assert.True(t, apperr.HasCode(stores.Content.Update(ctx, stale, 0), apperr.CodeConflict))

		loaded, err := stores.Content.FindByID(ctx, record.ContentID)
		require.NoError(t, err)
		assert.Equal(t, "Le Phare", loaded.Title.Resolve("fr"))
		assert.Nil(t, loaded.AdminEdits)
	})

	t.Run("notification_dedup", func(t *testing.T) {
		n := &notification.Notification{
			ID: uuid.New(), Recipient: notification.Author(authorID), Type: notification.TypeWelcome,
			Message: "hi", SourceEntityID: authorID, IdempotencyKey: "welcome:" + authorID, CreatedAt: now,
		}
		_, created, err := stores.Notifications.InsertIfAbsent(ctx, n)
		require.NoError(t, err)
		assert.True(t, created)

		replay := *n
		replay.ID = uuid.New()
		stored, created, err := stores.Notifications.InsertIfAbsent(ctx, &replay)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, n.ID, stored.ID)
	})

	t.Run("rollback", func(t *testing.T) {
		failure := errors.New("boom")
		var createdID string

		err := transactor.RunInTx(ctx, func(ctx context.Context, tx storage.Stores) error {
			createdID = seedAuthor(t, ctx, tx)
			return failure
		})
		require.ErrorIs(t, err, failure)

		_, err = stores.Authors.FindByID(ctx, createdID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})
}
