// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"log/slog"

	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/uuid"
)

// Enrollment is the outcome of a completed registration.
type Enrollment struct {
	Author *author.Author          `json:"author"`
	KYC    *submission.Submission `json:"kyc"`
}

/*
EnrollAuthor creates an author together with their first KYC submission.

Description: The author row, the pending KYC version 1, the welcome
notification and the moderation inbox entry are written in one transaction;
if any write fails nothing is kept. Documents are uploaded beforehand, so a
failed enrollment can leave orphaned blobs but never a partial account.

Parameters:
  - ctx: context.Context
  - account: *author.Author (ID, credentials and profile already set)
  - fields: submission.KYCFields

Returns:
  - *Enrollment: The created author and submission
  - error: VALIDATION_ERROR, CONFLICT (email or pseudo taken)
*/
func (engine *Engine) EnrollAuthor(ctx context.Context, account *author.Author, fields submission.KYCFields) (*Enrollment, error) {
	validator := &validate.Validator{}
	submission.ValidateKYC(validator, fields)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	resolved, err := engine.resolveKYCDocuments(ctx, account.ID, fields)
	if err != nil {
		return nil, err
	}

	now := engine.clock.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	kyc := &submission.Submission{
		ID:          uuid.New(),
		AuthorID:    account.ID,
		Kind:        submission.KindKYC,
		Version:     1,
		Status:      submission.StatusPending,
		KYC:         &resolved,
		SubmittedAt: now,
	}

	err = engine.tx.RunInTx(ctx, func(ctx context.Context, stores storage.Stores) error {
		if err := stores.Authors.Create(ctx, account); err != nil {
			return err
		}
		if err := stores.Submissions.Insert(ctx, kyc); err != nil {
			return err
		}

		emissions := []notification.Emission{
			{
				Recipient:         notification.Author(account.ID),
				Type:              notification.TypeWelcome,
				SourceEntityID:    account.ID,
				TransitionVersion: 1,
			},
			{
				Recipient:         notification.AdminInbox,
				Type:              notification.TypeKYCSubmitted,
				SourceEntityID:    kyc.ID,
				TransitionVersion: kyc.Version,
			},
		}
		for _, emission := range emissions {
			if _, err := engine.dispatcher.Emit(ctx, stores.Notifications, emission); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	engine.logger.InfoContext(ctx, "author_enrolled",
		slog.String("author_id", account.ID),
		slog.String("kyc_id", kyc.ID),
	)
	engine.committed(ctx, submissionEvent(kyc, "submitted", account.ID, now))

	return &Enrollment{Author: account, KYC: kyc}, nil
}
