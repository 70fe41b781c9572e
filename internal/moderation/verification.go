// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/blob"
	"github.com/taibuivan/plume/internal/platform/events"
	"github.com/taibuivan/plume/internal/platform/keylock"
	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/pagination"
	"github.com/taibuivan/plume/pkg/uuid"
)

// # Submission

/*
SubmitKYC records a new KYC version for an author.

Description: Inline documents are uploaded first; the submission only stores
references. See [Engine.submit] for the versioning rules.

Parameters:
  - ctx: context.Context
  - authorID: string
  - fields: submission.KYCFields

Returns:
  - *submission.Submission: The new pending version
  - error: VALIDATION_ERROR, ALREADY_PENDING, PRECONDITION_FAILED
*/
func (engine *Engine) SubmitKYC(ctx context.Context, authorID string, fields submission.KYCFields) (*submission.Submission, error) {
	validator := &validate.Validator{}
	submission.ValidateKYC(validator, fields)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	resolved, err := engine.resolveKYCDocuments(ctx, authorID, fields)
	if err != nil {
		return nil, err
	}

	return engine.submit(ctx, authorID, &submission.Submission{Kind: submission.KindKYC, KYC: &resolved})
}

// SubmitPayment records a new payout method version for an author.
func (engine *Engine) SubmitPayment(ctx context.Context, authorID string, fields submission.PaymentFields) (*submission.Submission, error) {
	validator := &validate.Validator{}
	submission.ValidatePayment(validator, fields)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	fields.PayoutPhone = strings.TrimSpace(fields.PayoutPhone)
	fields.HolderName = strings.TrimSpace(fields.HolderName)
	fields.ProviderRef = strings.TrimSpace(fields.ProviderRef)

	return engine.submit(ctx, authorID, &submission.Submission{Kind: submission.KindPaymentMethod, Payment: &fields})
}

/*
submit inserts the next version of a submission.

Description: Refused with ALREADY_PENDING while the current version awaits
review and with PRECONDITION_FAILED once it is approved. After a rejection
(or for a first submission) a new pending version n+1 is inserted and the
moderation inbox is notified in the same transaction.
*/
func (engine *Engine) submit(ctx context.Context, authorID string, draft *submission.Submission) (*submission.Submission, error) {
	kind := draft.Kind
	var created *submission.Submission

	err := engine.locker.Do(ctx, keylock.Key("submission", authorID+":"+string(kind)), func(ctx context.Context) error {
		return engine.tx.RunInTx(ctx, func(ctx context.Context, stores storage.Stores) error {
			version, err := nextVersion(ctx, stores.Submissions, authorID, kind)
			if err != nil {
				return err
			}

			created = &submission.Submission{
				ID:          uuid.New(),
				AuthorID:    authorID,
				Kind:        kind,
				Version:     version,
				Status:      submission.StatusPending,
				KYC:         draft.KYC,
				Payment:     draft.Payment,
				SubmittedAt: engine.clock.Now(),
			}
			if err := stores.Submissions.Insert(ctx, created); err != nil {
				return err
			}

			_, err = engine.dispatcher.Emit(ctx, stores.Notifications, notification.Emission{
				Recipient:         notification.AdminInbox,
				Type:              submittedType(kind),
				SourceEntityID:    created.ID,
				TransitionVersion: created.Version,
			})
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	engine.logger.InfoContext(ctx, "submission_created",
		slog.String("kind", string(kind)),
		slog.String("submission_id", created.ID),
		slog.String("author_id", authorID),
		slog.Int("version", created.Version),
	)
	engine.committed(ctx, submissionEvent(created, "submitted", authorID, engine.clock.Now()))

	return created, nil
}

// nextVersion applies the resubmission rules to the current version.
func nextVersion(ctx context.Context, store submission.Store, authorID string, kind submission.Kind) (int, error) {
	current, err := store.Current(ctx, authorID, kind)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	switch current.Status {
	case submission.StatusPending:
		return 0, apperr.AlreadyPending(kind.Label())
	case submission.StatusApproved:
		return 0, apperr.PreconditionFailed(kind.Label() + " is already approved")
	}
	return current.Version + 1, nil
}

// resolveKYCDocuments uploads inline documents and returns the fields with references only.
func (engine *Engine) resolveKYCDocuments(ctx context.Context, owner string, fields submission.KYCFields) (submission.KYCFields, error) {
	resolved := fields
	resolved.CINNumber = strings.ToUpper(strings.TrimSpace(fields.CINNumber))

	documents := []struct {
		field  string
		target *string
	}{
		{submission.FieldDocFront, &resolved.DocFront},
		{submission.FieldDocBack, &resolved.DocBack},
		{submission.FieldSelfie, &resolved.Selfie},
	}

	for _, document := range documents {
		reference, err := blob.ResolveDocument(ctx, engine.blobs, owner, document.field, *document.target)
		if err != nil {
			return submission.KYCFields{}, err
		}
		*document.target = reference
	}
	return resolved, nil
}

// # Review

// ReviewInput is a reviewer's decision on one submission version.
type ReviewInput struct {
	SubmissionID string
	AdminID      string
	Decision     Decision
	Reason       string
}

/*
ReviewSubmission records an admin decision on a pending submission.

Description: The first reviewer wins; the store's compare-and-swap on the
pending status makes every later attempt fail with ALREADY_REVIEWED. The
author is notified in the same transaction.

Parameters:
  - ctx: context.Context
  - input: ReviewInput

Returns:
  - *submission.Submission: The reviewed version
  - error: VALIDATION_ERROR, REASON_REQUIRED, NOT_FOUND, ALREADY_REVIEWED
*/
func (engine *Engine) ReviewSubmission(ctx context.Context, input ReviewInput) (*submission.Submission, error) {
	reason, err := checkDecision(input.Decision, input.Reason)
	if err != nil {
		return nil, err
	}

	status := submission.StatusApproved
	if input.Decision == DecisionReject {
		status = submission.StatusRejected
	}

	var reviewed *submission.Submission
	err = engine.locker.Do(ctx, keylock.Key("submission", input.SubmissionID), func(ctx context.Context) error {
		return engine.tx.RunInTx(ctx, func(ctx context.Context, stores storage.Stores) error {
			var err error
			reviewed, err = stores.Submissions.Review(ctx, submission.Decision{
				SubmissionID: input.SubmissionID,
				Status:       status,
				Reason:       reason,
				ReviewedBy:   input.AdminID,
				ReviewedAt:   engine.clock.Now(),
			})
			if err != nil {
				return err
			}

			_, err = engine.dispatcher.Emit(ctx, stores.Notifications, notification.Emission{
				Recipient:         notification.Author(reviewed.AuthorID),
				Type:              reviewedType(reviewed.Kind, status),
				Payload:           notification.Payload{Reason: reason},
				SourceEntityID:    reviewed.ID,
				TransitionVersion: reviewed.Version,
			})
			return err
		})
	})
	if apperr.HasCode(err, apperr.CodeAlreadyReviewed) {
		engine.metrics.ObserveConflict("submission")
		engine.logger.InfoContext(ctx, "submission_review_conflict",
			slog.String("submission_id", input.SubmissionID),
			slog.String("admin_id", input.AdminID),
		)
	}
	if err != nil {
		return nil, err
	}

	engine.logger.InfoContext(ctx, "submission_reviewed",
		slog.String("kind", string(reviewed.Kind)),
		slog.String("submission_id", reviewed.ID),
		slog.String("status", string(reviewed.Status)),
		slog.String("admin_id", input.AdminID),
	)
	engine.committed(ctx, submissionEvent(reviewed, "reviewed", input.AdminID, engine.clock.Now()))

	return reviewed, nil
}

// checkDecision validates a verdict and returns the trimmed reason (empty on approval).
func checkDecision(decision Decision, reason string) (string, error) {
	if !decision.IsValid() {
		return "", validate.RequiredError(submission.FieldDecision, "Must be one of: approve, reject")
	}
	if decision == DecisionApprove {
		return "", nil
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperr.ReasonRequired()
	}
	validator := &validate.Validator{}
	if err := validator.MaxLen(submission.FieldReason, reason, 1000).Err(); err != nil {
		return "", err
	}
	return reason, nil
}

// # Gating

// CanPublish reports whether the author's current KYC is approved.
func (engine *Engine) CanPublish(ctx context.Context, authorID string) (bool, error) {
	return isApproved(ctx, engine.tx.Stores().Submissions, authorID, submission.KindKYC)
}

// Eligibility summarises the payout gate.
type Eligibility struct {
	Eligible      bool              `json:"eligible"`
	KYCStatus     submission.Status `json:"kyc_status,omitempty"`
	PaymentStatus submission.Status `json:"payment_status,omitempty"`
}

// PayoutEligibility requires both the current KYC and the current payment method approved.
func (engine *Engine) PayoutEligibility(ctx context.Context, authorID string) (*Eligibility, error) {
	store := engine.tx.Stores().Submissions
	eligibility := &Eligibility{}

	for _, kind := range []submission.Kind{submission.KindKYC, submission.KindPaymentMethod} {
		current, err := store.Current(ctx, authorID, kind)
		if apperr.HasCode(err, apperr.CodeNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("payout_eligibility_failed: %w", err)
		}
		if kind == submission.KindKYC {
			eligibility.KYCStatus = current.Status
		} else {
			eligibility.PaymentStatus = current.Status
		}
	}

	eligibility.Eligible = eligibility.KYCStatus == submission.StatusApproved &&
		eligibility.PaymentStatus == submission.StatusApproved
	return eligibility, nil
}

func isApproved(ctx context.Context, store submission.Store, authorID string, kind submission.Kind) (bool, error) {
	current, err := store.Current(ctx, authorID, kind)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current.Status == submission.StatusApproved, nil
}

// # Queries

// ListSubmissions returns an admin queue page. Reads are snapshots and may be stale.
func (engine *Engine) ListSubmissions(ctx context.Context, filter submission.Filter, params pagination.Params) (pagination.Page[*submission.Submission], error) {
	items, total, err := engine.tx.Stores().Submissions.List(ctx, filter, params.Limit, params.Offset())
	if err != nil {
		return pagination.Page[*submission.Submission]{}, err
	}
	return pagination.NewPage(items, params, total), nil
}

// SubmissionHistory returns every version of an author's submission of one kind, newest first.
func (engine *Engine) SubmissionHistory(ctx context.Context, authorID string, kind submission.Kind) ([]*submission.Submission, error) {
	return engine.tx.Stores().Submissions.History(ctx, authorID, kind)
}

// CurrentSubmission returns the version that currently decides gating.
func (engine *Engine) CurrentSubmission(ctx context.Context, authorID string, kind submission.Kind) (*submission.Submission, error) {
	return engine.tx.Stores().Submissions.Current(ctx, authorID, kind)
}

// Submission returns one version by id.
func (engine *Engine) Submission(ctx context.Context, id string) (*submission.Submission, error) {
	return engine.tx.Stores().Submissions.FindByID(ctx, id)
}

// # Mapping

func submittedType(kind submission.Kind) notification.Type {
	if kind == submission.KindPaymentMethod {
		return notification.TypePaymentSubmitted
	}
	return notification.TypeKYCSubmitted
}

func reviewedType(kind submission.Kind, status submission.Status) notification.Type {
	switch {
	case kind == submission.KindKYC && status == submission.StatusApproved:
		return notification.TypeKYCApproved
	case kind == submission.KindKYC:
		return notification.TypeKYCRejected
	case status == submission.StatusApproved:
		return notification.TypePaymentApproved
	default:
		return notification.TypePaymentRejected
	}
}

func submissionEvent(item *submission.Submission, action, actorID string, at time.Time) events.Event {
	return events.Event{
		Type:       string(item.Kind) + "." + action,
		EntityID:   item.ID,
		AuthorID:   item.AuthorID,
		Status:     string(item.Status),
		Version:    item.Version,
		ActorID:    actorID,
		OccurredAt: at,
	}
}
