// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/pkg/clock"
)

type stubTokens struct{}

func (stubTokens) GenerateAccessToken(userID, _, _ string, _ time.Duration) (string, error) {
	return "token-for-" + userID, nil
}

func seed(t *testing.T, store *author.MemoryStore, status author.Status) *author.Author {
	t.Helper()

	hash, err := sec.HashPassword("s3cret-pass")
	require.NoError(t, err)

	created := &author.Author{
		ID:           "author-1",
		Email:        "ayoub@example.com",
		Pseudo:       "inkwell",
		PasswordHash: hash,
		Status:       status,
		Role:         sec.RoleAuthor,
		FirstName:    "Ayoub",
		LastName:     "B",
	}
	require.NoError(t, store.Create(context.Background(), created))
	return created
}

func newService(store author.Store, grants author.GrantVerifier, clk clock.Clock) *author.Service {
	return author.NewService(store, stubTokens{}, grants, author.NewMemoryGrantLedger(clk), clk, slog.Default())
}

/*
TestService_Login covers credential checks and account status.
*/
func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success_case_insensitive_email", func(t *testing.T) {
		store := author.NewMemoryStore()
		seed(t, store, author.StatusActive)

		session, err := newService(store, nil, clock.System{}).Login(ctx, " Ayoub@Example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, "token-for-author-1", session.AccessToken)
		assert.Equal(t, "Bearer", session.TokenType)
	})

	t.Run("wrong_password", func(t *testing.T) {
		store := author.NewMemoryStore()
		seed(t, store, author.StatusActive)

		_, err := newService(store, nil, clock.System{}).Login(ctx, "ayoub@example.com", "nope-nope")
		assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := newService(author.NewMemoryStore(), nil, clock.System{}).Login(ctx, "ghost@example.com", "whatever1")
		assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	})

	t.Run("suspended", func(t *testing.T) {
		store := author.NewMemoryStore()
		seed(t, store, author.StatusSuspended)

		_, err := newService(store, nil, clock.System{}).Login(ctx, "ayoub@example.com", "s3cret-pass")
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	})
}

/*
TestService_ResetPassword accepts only a password_reset grant bound to an account.
*/
func TestService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	store := author.NewMemoryStore()
	seed(t, store, author.StatusActive)

	clk := clock.NewManual(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	grants := sec.NewGrantSigner("secret", "plume.test", 15*time.Minute).WithClock(clk.Now)
	service := newService(store, grants, clk)

	registrationGrant, err := grants.IssueGrant("ayoub@example.com", "registration", "")
	require.NoError(t, err)
	err = service.ResetPassword(ctx, registrationGrant, "brand-new-pass")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	err = service.ResetPassword(ctx, "whatever", "short")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	resetGrant, err := grants.IssueGrant("ayoub@example.com", "password_reset", "author-1")
	require.NoError(t, err)
	require.NoError(t, service.ResetPassword(ctx, resetGrant, "brand-new-pass"))

	_, err = service.Login(ctx, "ayoub@example.com", "brand-new-pass")
	assert.NoError(t, err)

	// The same grant cannot reset the password a second time.
	err = service.ResetPassword(ctx, resetGrant, "attacker-pass")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	_, err = service.Login(ctx, "ayoub@example.com", "brand-new-pass")
	assert.NoError(t, err)
}

/*
TestMemoryGrantLedger_Consume accepts each grant id once until it expires.
*/
func TestMemoryGrantLedger_Consume(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	ledger := author.NewMemoryGrantLedger(clk)
	expiresAt := clk.Now().Add(15 * time.Minute)

	fresh, err := ledger.Consume(ctx, "grant-1", expiresAt)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = ledger.Consume(ctx, "grant-1", expiresAt)
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = ledger.Consume(ctx, "grant-2", expiresAt)
	require.NoError(t, err)
	assert.True(t, fresh)
}

/*
TestService_UpdateProfile trims and persists profile fields.
*/
func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := author.NewMemoryStore()
	seed(t, store, author.StatusActive)
	service := newService(store, nil, clock.System{})

	updated, err := service.UpdateProfile(ctx, "author-1", author.ProfileInput{FirstName: "  Sara ", LastName: "K", Phone: "+212600000000"})
	require.NoError(t, err)
	assert.Equal(t, "Sara", updated.FirstName)

	_, err = service.UpdateProfile(ctx, "author-1", author.ProfileInput{})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestMemoryStore_Uniqueness enforces unique email and pseudo and restores checkpoints.
*/
func TestMemoryStore_Uniqueness(t *testing.T) {
	ctx := context.Background()
	store := author.NewMemoryStore()
	seed(t, store, author.StatusActive)

	err := store.Create(ctx, &author.Author{ID: "author-2", Email: "ayoub@example.com", Pseudo: "other"})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	err = store.Create(ctx, &author.Author{ID: "author-3", Email: "new@example.com", Pseudo: "INKWELL"})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	restore := store.Checkpoint()
	require.NoError(t, store.Create(ctx, &author.Author{ID: "author-4", Email: "four@example.com", Pseudo: "four"}))
	restore()

	_, err = store.FindByID(ctx, "author-4")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
