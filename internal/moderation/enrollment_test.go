// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/uuid"
)

func newAccount(email, pseudo string) *author.Author {
	return &author.Author{
		ID:        uuid.New(),
		Email:     email,
		Pseudo:    pseudo,
		Status:    author.StatusActive,
		Role:      sec.RoleAuthor,
		FirstName: "Salma",
		LastName:  "R",
	}
}

/*
TestEngine_EnrollAuthor checks that enrollment writes the author, KYC v1 and
both notifications together, and keeps nothing when one write fails.
*/
func TestEngine_EnrollAuthor(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		account := newAccount("salma@example.com", "salma")

		enrollment, err := f.engine.EnrollAuthor(ctx, account, kycFields())
		require.NoError(t, err)
		assert.Equal(t, 1, enrollment.KYC.Version)
		assert.Equal(t, submission.StatusPending, enrollment.KYC.Status)
		assert.Equal(t, f.clock.Now(), enrollment.Author.CreatedAt)

		stored, err := f.memory.Authors.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "salma", stored.Pseudo)

		assert.Equal(t, 1, countType(f.inbox(t, notification.Author(account.ID)), notification.TypeWelcome))
		assert.Equal(t, 1, countType(f.inbox(t, notification.AdminInbox), notification.TypeKYCSubmitted))
		assert.Equal(t, []string{"kyc.submitted"}, eventTypes(f.events))
	})

	t.Run("duplicate_email_rolls_back", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.EnrollAuthor(ctx, newAccount("salma@example.com", "salma"), kycFields())
		require.NoError(t, err)

		second := newAccount("salma@example.com", "another")
		_, err = f.engine.EnrollAuthor(ctx, second, kycFields())
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

		_, err = f.memory.Submissions.Current(ctx, second.ID, submission.KindKYC)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
		assert.Empty(t, f.inbox(t, notification.Author(second.ID)))
		assert.Len(t, f.inbox(t, notification.AdminInbox), 1)
		assert.Len(t, f.events.Events(), 1)
	})

	t.Run("invalid_kyc", func(t *testing.T) {
		f := newFixture(t)
		fields := kycFields()
		fields.Selfie = ""

		account := newAccount("nour@example.com", "nour")
		_, err := f.engine.EnrollAuthor(ctx, account, fields)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

		_, err = f.memory.Authors.FindByID(ctx, account.ID)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})
}
