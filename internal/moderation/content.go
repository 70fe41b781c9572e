// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/plume/internal/content/review"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/events"
	"github.com/taibuivan/plume/internal/platform/keylock"
	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/locale"
	"github.com/taibuivan/plume/pkg/pagination"
	"github.com/taibuivan/plume/pkg/uuid"
)

// # Drafts

// DraftInput carries the author-editable fields of a story or chapter.
type DraftInput struct {
	Kind     review.Kind
	ParentID string
	Title    locale.Text
	Body     locale.Text
	Metadata map[string]string
}

/*
CreateDraft creates a story or chapter in draft status.

Description: A chapter must point at a story owned by the same author. Drafts
need no verification; the KYC gate applies when the draft is submitted.

Parameters:
  - ctx: context.Context
  - authorID: string
  - input: DraftInput

Returns:
  - *review.Record: The new draft
  - error: VALIDATION_ERROR, NOT_FOUND (parent)
*/
func (engine *Engine) CreateDraft(ctx context.Context, authorID string, input DraftInput) (*review.Record, error) {
	validator := &validate.Validator{}
	review.ValidateDraft(validator, input.Kind, input.ParentID, input.Title, input.Body, input.Metadata)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	now := engine.clock.Now()
	record := &review.Record{
		ContentID: uuid.New(),
		Kind:      input.Kind,
		ParentID:  input.ParentID,
		AuthorID:  authorID,
		Status:    review.StatusDraft,
		Title:     input.Title,
		Body:      input.Body,
		Metadata:  input.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := engine.tx.RunInTx(ctx, func(ctx context.Context, stores storage.Stores) error {
		if record.Kind == review.KindChapter {
			parent, err := stores.Content.FindByID(ctx, record.ParentID)
			if err != nil {
				return err
			}
			if parent.Kind != review.KindStory || parent.AuthorID != authorID {
				return apperr.NotFound("Story")
			}
		}
		return stores.Content.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	engine.logger.InfoContext(ctx, "content_draft_created",
		slog.String("content_id", record.ContentID),
		slog.String("kind", string(record.Kind)),
		slog.String("author_id", authorID),
	)
	return record, nil
}

// UpdateDraft replaces the editable fields of a draft or rejected item.
func (engine *Engine) UpdateDraft(ctx context.Context, contentID, authorID string, input DraftInput) (*review.Record, error) {
	var updated *review.Record

	err := engine.locker.Do(ctx, keylock.Key("content", contentID), func(ctx context.Context) error {
		return engine.tx.RunInTx(ctx, func(ctx context.Context, stores storage.Stores) error {
			record, err := ownedContent(ctx, stores.Content, contentID, authorID)
			if err != nil {
				return err
			}
			if !record.Status.IsEditable() {
				return apperr.NotDraftOrRejected()
			}

			validator := &validate.Validator{}
			review.ValidateDraft(validator, record.Kind, record.ParentID, input.Title, input.Body, input.Metadata)
			if err := validator.Err(); err != nil {
				return err
			}

			expected := record.Revision
			record.Title = input.Title
			record.Body = input.Body
			record.Metadata = input.Metadata
			record.UpdatedAt = engine.clock.Now()
			if err := stores.Content.Update(ctx, record, expected); err != nil {
				return err
			}
			updated = record
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// # Review Lifecycle

/*
SubmitContentForReview moves a draft or rejected item to pending.

Description: The checks run in this order:
  - already pending: ALREADY_PENDING;
  - published or archived: NOT_DRAFT_OR_REJECTED;
  - author's current KYC not approved: PRECONDITION_FAILED;
  - chapter whose parent story is still a draft: PRECONDITION_FAILED.

On success the moderation inbox is notified in the same transaction.

Parameters:
  - ctx: context.Context
  - contentID: string
  - authorID: string (the caller; must own the content)

Returns:
  - *review.Record: The pending record
  - error: see above, plus NOT_FOUND
*/
func (engine *Engine) SubmitContentForReview(ctx context.Context, contentID, authorID string) (*review.Record, error) {
	var submitted *review.Record

	err := engine.locker.Do(ctx, keylock.Key("content", contentID), func(ctx context.Context) error {
		return engine.tx.RunInTx(ctx, func(ctx context.Context, stores storage.Stores) error {
			record, err := ownedContent(ctx, stores.Content, contentID, authorID)
			if err != nil {
				return err
			}

			switch {
			case record.Status == review.StatusPending:
				return apperr.AlreadyPending(record.Kind.Label())
			case !record.Status.IsEditable():
				return apperr.NotDraftOrRejected()
			}

			verified, err := isApproved(ctx, stores.Submissions, record.AuthorID, submission.KindKYC)
			if err != nil {
				return err
			}
			if !verified {
				return apperr.PreconditionFailed("Identity verification must be approved before submitting content")
			}

			if record.Kind == review.KindChapter {
				parent, err := stores.Content.FindByID(ctx, record.ParentID)
				if err != nil {
					return err
				}
				if parent.Status == review.StatusDraft {
					return apperr.PreconditionFailed("The parent story must be submitted before its chapters")
				}
			}

			now := engine.clock.Now()
			expected := record.Revision
			record.Status = review.StatusPending
			record.SubmittedAt = &now
			record.RejectionReason = ""
			record.UpdatedAt = now
			if err := stores.Content.Update(ctx, record, expected); err != nil {
				return casError(err, apperr.AlreadyPending(record.Kind.Label()))
			}

			if _, err := engine.dispatcher.Emit(ctx, stores.Notifications, notification.Emission{
				Recipient:         notification.AdminInbox,
				Type:              notification.TypeContentSubmitted,
				Payload:           notification.Payload{Title: record.Title.Resolve()},
				SourceEntityID:    record.ContentID,
				TransitionVersion: record.Revision,
			}); err != nil {
				return err
			}

			submitted = record
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	engine.logger.InfoContext(ctx, "content_submitted",
		slog.String("content_id", submitted.ContentID),
		slog.String("kind", string(submitted.Kind)),
		slog.Int("revision", submitted.Revision),
	)
	engine.committed(ctx, contentEvent(submitted, "submitted", authorID, engine.clock.Now()))

	return submitted, nil
}

// ContentReviewInput is a reviewer's decision on a pending story or chapter.
type ContentReviewInput struct {
	ContentID string
	AdminID   string
	Decision  Decision
	Reason    string
	Edits     *review.Edits
}

/*
ReviewContent publishes or rejects pending content.

Description: Approval may carry admin edits, which overwrite the matching
localized fields in the same write that publishes the item; the edits are
kept as a snapshot on the record. Edits are refused on rejection. Approving a
story never approves its chapters.

Parameters:
  - ctx: context.Context
  - input: ContentReviewInput

Returns:
  - *review.Record: The reviewed record
  - error: VALIDATION_ERROR, REASON_REQUIRED, NOT_FOUND, ALREADY_REVIEWED
*/
func (engine *Engine) ReviewContent(ctx context.Context, input ContentReviewInput) (*review.Record, error) {
	reason, err := checkDecision(input.Decision, input.Reason)
	if err != nil {
		return nil, err
	}
	if input.Decision == DecisionReject && !input.Edits.IsEmpty() {
		return nil, validate.RequiredError("edits", "Edits can only accompany an approval")
	}
	validator := &validate.Validator{}
	review.ValidateEdits(validator, input.Edits)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	var reviewed *review.Record
	err = engine.locker.Do(ctx, keylock.Key("content", input.ContentID), func(ctx context.Context) error {
		return engine.tx.RunInTx(ctx, func(ctx context.Context, stores storage.Stores) error {
			record, err := stores.Content.FindByID(ctx, input.ContentID)
			if err != nil {
				return err
			}
			if record.Status != review.StatusPending {
				return apperr.AlreadyReviewed(record.Kind.Label())
			}

			now := engine.clock.Now()
			expected := record.Revision
			notificationType := notification.TypeContentPublished

			if input.Decision == DecisionApprove {
				record.ApplyEdits(input.Edits)
				record.Status = review.StatusPublished
				record.RejectionReason = ""
			} else {
				record.Status = review.StatusRejected
				record.RejectionReason = reason
				notificationType = notification.TypeContentRejected
			}
			record.ReviewedAt = &now
			record.ReviewedBy = input.AdminID
			record.UpdatedAt = now

			if err := stores.Content.Update(ctx, record, expected); err != nil {
				return casError(err, apperr.AlreadyReviewed(record.Kind.Label()))
			}

			if _, err := engine.dispatcher.Emit(ctx, stores.Notifications, notification.Emission{
				Recipient:         notification.Author(record.AuthorID),
				Type:              notificationType,
				Payload:           notification.Payload{Title: record.Title.Resolve(), Reason: reason},
				SourceEntityID:    record.ContentID,
				TransitionVersion: record.Revision,
			}); err != nil {
				return err
			}

			reviewed = record
			return nil
		})
	})
	if apperr.HasCode(err, apperr.CodeAlreadyReviewed) {
		engine.metrics.ObserveConflict("content")
	}
	if err != nil {
		return nil, err
	}

	engine.logger.InfoContext(ctx, "content_reviewed",
		slog.String("content_id", reviewed.ContentID),
		slog.String("status", string(reviewed.Status)),
		slog.String("admin_id", input.AdminID),
		slog.Bool("edited", !input.Edits.IsEmpty()),
	)
	engine.committed(ctx, contentEvent(reviewed, "reviewed", input.AdminID, engine.clock.Now()))

	return reviewed, nil
}

// ArchiveContent retires published content. The transition is one way.
func (engine *Engine) ArchiveContent(ctx context.Context, contentID, authorID string) (*review.Record, error) {
	var archived *review.Record

	err := engine.locker.Do(ctx, keylock.Key("content", contentID), func(ctx context.Context) error {
		return engine.tx.RunInTx(ctx, func(ctx context.Context, stores storage.Stores) error {
			record, err := ownedContent(ctx, stores.Content, contentID, authorID)
			if err != nil {
				return err
			}
			if record.Status != review.StatusPublished {
				return apperr.PreconditionFailed("Only published content can be archived")
			}

			expected := record.Revision
			record.Status = review.StatusArchived
			record.UpdatedAt = engine.clock.Now()
			if err := stores.Content.Update(ctx, record, expected); err != nil {
				return err
			}
			archived = record
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	engine.logger.InfoContext(ctx, "content_archived", slog.String("content_id", contentID))
	engine.committed(ctx, contentEvent(archived, "archived", authorID, engine.clock.Now()))

	return archived, nil
}

// # Queries

// ListContent returns a page of content records.
func (engine *Engine) ListContent(ctx context.Context, filter review.Filter, params pagination.Params) (pagination.Page[*review.Record], error) {
	items, total, err := engine.tx.Stores().Content.List(ctx, filter, params.Limit, params.Offset())
	if err != nil {
		return pagination.Page[*review.Record]{}, err
	}
	return pagination.NewPage(items, params, total), nil
}

// Content returns one record.
func (engine *Engine) Content(ctx context.Context, contentID string) (*review.Record, error) {
	return engine.tx.Stores().Content.FindByID(ctx, contentID)
}

// # Helpers

// ownedContent loads a record and hides it from anyone but its author.
func ownedContent(ctx context.Context, store review.Store, contentID, authorID string) (*review.Record, error) {
	record, err := store.FindByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if record.AuthorID != authorID {
		return nil, apperr.NotFound("Content")
	}
	return record, nil
}

// casError maps a lost revision race to the caller-facing lifecycle error.
func casError(err error, lost *apperr.AppError) error {
	if apperr.HasCode(err, apperr.CodeConflict) {
		lost.Cause = err
		return lost
	}
	return err
}

func contentEvent(record *review.Record, action, actorID string, at time.Time) events.Event {
	return events.Event{
		Type:       string(record.Kind) + "." + action,
		EntityID:   record.ContentID,
		AuthorID:   record.AuthorID,
		Status:     string(record.Status),
		Version:    record.Revision,
		ActorID:    actorID,
		OccurredAt: at,
	}
}
