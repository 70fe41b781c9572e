// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/dberr"
	"github.com/taibuivan/plume/internal/platform/postgres"
)

// PostgresStore implements [Store] on review.verification_submission.
type PostgresStore struct {
	db postgres.DBTX
}

// NewPostgresStore creates a [PostgresStore].
func NewPostgresStore(db postgres.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectSubmission = `
	SELECT id, authorid, kind, version, status,
	       cinnumber, docfront, docback, selfie,
	       payoutphone, holdername, providerref,
	       rejectionreason, reviewedby, reviewedat, submittedat
	FROM review.verification_submission`

/*
Insert persists a new submission version.

Description: The partial unique index on pending rows makes two concurrent
submits for the same (author, kind) impossible; the loser gets ALREADY_PENDING.

Parameters:
  - ctx: context.Context
  - submission: *Submission

Returns:
  - error: ALREADY_PENDING, CONFLICT or wrapped storage errors
*/
func (repository *PostgresStore) Insert(ctx context.Context, submission *Submission) error {
	const query = `
		INSERT INTO review.verification_submission (
			id, authorid, kind, version, status,
			cinnumber, docfront, docback, selfie,
			payoutphone, holdername, providerref,
			submittedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var kyc KYCFields
	if submission.KYC != nil {
		kyc = *submission.KYC
	}
	var payment PaymentFields
	if submission.Payment != nil {
		payment = *submission.Payment
	}

	_, err := repository.db.Exec(ctx, query,
		submission.ID,
		submission.AuthorID,
		submission.Kind,
		submission.Version,
		submission.Status,
		kyc.CINNumber, kyc.DocFront, kyc.DocBack, kyc.Selfie,
		payment.PayoutPhone, payment.HolderName, payment.ProviderRef,
		submission.SubmittedAt,
	)

	if dberr.IsUniqueViolation(err) && dberr.ConstraintName(err) == "verification_submission_one_pending" {
		return apperr.AlreadyPending(submission.Kind.Label())
	}
	return dberr.Wrap(err, submission.Kind.Label(), "postgres_submission_insert")
}

// FindByID implements [Store].
func (repository *PostgresStore) FindByID(ctx context.Context, id string) (*Submission, error) {
	row := repository.db.QueryRow(ctx, selectSubmission+` WHERE id = $1`, id)
	submission, err := scanSubmission(row)
	if err != nil {
		return nil, dberr.Wrap(err, "Submission", "postgres_submission_find")
	}
	return submission, nil
}

// Current implements [Store].
func (repository *PostgresStore) Current(ctx context.Context, authorID string, kind Kind) (*Submission, error) {
	query := selectSubmission + ` WHERE authorid = $1 AND kind = $2 ORDER BY version DESC LIMIT 1`

	submission, err := scanSubmission(repository.db.QueryRow(ctx, query, authorID, kind))
	if err != nil {
		return nil, dberr.Wrap(err, kind.Label(), "postgres_submission_current")
	}
	return submission, nil
}

// History implements [Store].
func (repository *PostgresStore) History(ctx context.Context, authorID string, kind Kind) ([]*Submission, error) {
	query := selectSubmission + ` WHERE authorid = $1 AND kind = $2 ORDER BY version DESC`

	rows, err := repository.db.Query(ctx, query, authorID, kind)
	if err != nil {
		return nil, dberr.Wrap(err, kind.Label(), "postgres_submission_history")
	}
	defer rows.Close()

	return collect(rows)
}

/*
List returns a filtered page of submissions.

Description: Builds the WHERE clause dynamically from the non-zero filter
fields. CurrentOnly keeps only the highest version per (author, kind).

Parameters:
  - ctx: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Submission: Page items, newest first
  - int: Total matches
  - error: Wrapped storage errors
*/
func (repository *PostgresStore) List(ctx context.Context, filter Filter, limit, offset int) ([]*Submission, int, error) {
	conditions := []string{"1 = 1"}
	arguments := []any{}

	add := func(clause string, value any) {
		arguments = append(arguments, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(arguments)))
	}

	if filter.Kind != "" {
		add("s.kind = $%d", filter.Kind)
	}
	if filter.Status != "" {
		add("s.status = $%d", filter.Status)
	}
	if filter.AuthorID != "" {
		add("s.authorid = $%d", filter.AuthorID)
	}
	if filter.CurrentOnly {
		conditions = append(conditions, `s.version = (
			SELECT max(latest.version) FROM review.verification_submission latest
			WHERE latest.authorid = s.authorid AND latest.kind = s.kind)`)
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM review.verification_submission s WHERE ` + where
	if err := repository.db.QueryRow(ctx, countQuery, arguments...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Submission", "postgres_submission_count")
	}

	arguments = append(arguments, limit, offset)
	listQuery := fmt.Sprintf(`%s s WHERE %s ORDER BY s.submittedat DESC, s.id DESC LIMIT $%d OFFSET $%d`,
		selectSubmission, where, len(arguments)-1, len(arguments))

	rows, err := repository.db.Query(ctx, listQuery, arguments...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Submission", "postgres_submission_list")
	}
	defer rows.Close()

	submissions, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

/*
Review records a decision on a pending version.

Description: The UPDATE only matches a row whose status is still 'pending', so
of two concurrent reviewers exactly one affects a row. The other is told
whether the row is missing (NOT_FOUND) or already decided (ALREADY_REVIEWED).

Parameters:
  - ctx: context.Context
  - decision: Decision

Returns:
  - *Submission: The reviewed version
  - error: NOT_FOUND, ALREADY_REVIEWED or wrapped storage errors
*/
func (repository *PostgresStore) Review(ctx context.Context, decision Decision) (*Submission, error) {
	const query = `
		UPDATE review.verification_submission
		SET status = $2, rejectionreason = $3, reviewedby = $4, reviewedat = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING id, authorid, kind, version, status,
		          cinnumber, docfront, docback, selfie,
		          payoutphone, holdername, providerref,
		          rejectionreason, reviewedby, reviewedat, submittedat`

	row := repository.db.QueryRow(ctx, query,
		decision.SubmissionID,
		decision.Status,
		decision.Reason,
		decision.ReviewedBy,
		decision.ReviewedAt,
	)

	reviewed, err := scanSubmission(row)
	if err == nil {
		return reviewed, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, dberr.Wrap(err, "Submission", "postgres_submission_review")
	}

	// No row matched: either it does not exist or someone else decided first.
	existing, findErr := repository.FindByID(ctx, decision.SubmissionID)
	if findErr != nil {
		return nil, findErr
	}
	return nil, apperr.AlreadyReviewed(existing.Kind.Label())
}

// # Scanning

func scanSubmission(row pgx.Row) (*Submission, error) {
	submission := &Submission{}
	kyc := KYCFields{}
	payment := PaymentFields{}

	err := row.Scan(
		&submission.ID,
		&submission.AuthorID,
		&submission.Kind,
		&submission.Version,
		&submission.Status,
		&kyc.CINNumber, &kyc.DocFront, &kyc.DocBack, &kyc.Selfie,
		&payment.PayoutPhone, &payment.HolderName, &payment.ProviderRef,
		&submission.RejectionReason,
		&submission.ReviewedBy,
		&submission.ReviewedAt,
		&submission.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}

	switch submission.Kind {
	case KindKYC:
		submission.KYC = &kyc
	case KindPaymentMethod:
		submission.Payment = &payment
	}
	return submission, nil
}

func collect(rows pgx.Rows) ([]*Submission, error) {
	submissions := make([]*Submission, 0)
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "Submission", "postgres_submission_scan")
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Submission", "postgres_submission_rows")
	}
	return submissions, nil
}
