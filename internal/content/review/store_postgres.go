// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/dberr"
	"github.com/taibuivan/plume/internal/platform/postgres"
)

// PostgresStore implements [Store] on review.content.
//
// Localized text, metadata and the admin-edit snapshot are JSONB columns;
// pgx marshals them through encoding/json.
type PostgresStore struct {
	db postgres.DBTX
}

// NewPostgresStore creates a [PostgresStore].
func NewPostgresStore(db postgres.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectRecord = `
	SELECT c.contentid, c.kind, COALESCE(c.parentid::text, ''), c.authorid, c.status,
	       c.title, c.body, c.metadata, c.rejectionreason,
	       c.submittedat, c.reviewedat, c.reviewedby, c.adminedits,
	       c.revision, c.createdat, c.updatedat
	FROM review.content c`

// Create implements [Store].
func (repository *PostgresStore) Create(ctx context.Context, record *Record) error {
	const query = `
		INSERT INTO review.content (
			contentid, kind, parentid, authorid, status, title, body, metadata,
			revision, createdat, updatedat
		) VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := repository.db.Exec(ctx, query,
		record.ContentID,
		record.Kind,
		record.ParentID,
		record.AuthorID,
		record.Status,
		orEmpty(record.Title),
		orEmpty(record.Body),
		orEmpty(record.Metadata),
		record.Revision,
		record.CreatedAt,
		record.UpdatedAt,
	)
	return dberr.Wrap(err, record.Kind.Label(), "postgres_content_create")
}

// FindByID implements [Store].
func (repository *PostgresStore) FindByID(ctx context.Context, contentID string) (*Record, error) {
	record, err := scanRecord(repository.db.QueryRow(ctx, selectRecord+` WHERE c.contentid = $1`, contentID))
	if err != nil {
		return nil, dberr.Wrap(err, "Content", "postgres_content_find")
	}
	return record, nil
}

/*
Update writes a transition guarded by the revision counter.

Description: The WHERE clause pins the revision the caller read, so a
concurrent writer that committed first makes this statement match no row.
That case is reported as CONFLICT; a missing row as NOT_FOUND.

Parameters:
  - ctx: context.Context
  - record: *Record (Revision is advanced on success)
  - expectedRevision: int

Returns:
  - error: CONFLICT, NOT_FOUND or wrapped storage errors
*/
func (repository *PostgresStore) Update(ctx context.Context, record *Record, expectedRevision int) error {
	const query = `
		UPDATE review.content
		SET status = $3,
		    title = $4,
		    body = $5,
		    metadata = $6,
		    rejectionreason = $7,
		    submittedat = $8,
		    reviewedat = $9,
		    reviewedby = $10,
		    adminedits = $11,
		    updatedat = $12,
		    revision = revision + 1
		WHERE contentid = $1 AND revision = $2`

	tag, err := repository.db.Exec(ctx, query,
		record.ContentID,
		expectedRevision,
		record.Status,
		orEmpty(record.Title),
		orEmpty(record.Body),
		orEmpty(record.Metadata),
		record.RejectionReason,
		record.SubmittedAt,
		record.ReviewedAt,
		record.ReviewedBy,
		record.AdminEdits,
		record.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, record.Kind.Label(), "postgres_content_update")
	}

	if tag.RowsAffected() == 0 {
		if _, findErr := repository.FindByID(ctx, record.ContentID); findErr != nil {
			return findErr
		}
		return apperr.Conflict(record.Kind.Label() + " was modified concurrently")
	}

	record.Revision = expectedRevision + 1
	return nil
}

// List implements [Store].
func (repository *PostgresStore) List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int, error) {
	conditions := []string{"1 = 1"}
	arguments := []any{}

	add := func(clause string, value any) {
		arguments = append(arguments, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(arguments)))
	}

	if filter.Kind != "" {
		add("c.kind = $%d", filter.Kind)
	}
	if filter.Status != "" {
		add("c.status = $%d", filter.Status)
	}
	if filter.AuthorID != "" {
		add("c.authorid = $%d", filter.AuthorID)
	}
	if filter.ParentID != "" {
		add("c.parentid = $%d", filter.ParentID)
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := repository.db.QueryRow(ctx, `SELECT count(*) FROM review.content c WHERE `+where, arguments...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Content", "postgres_content_count")
	}

	arguments = append(arguments, limit, offset)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY c.updatedat DESC, c.contentid DESC LIMIT $%d OFFSET $%d`,
		selectRecord, where, len(arguments)-1, len(arguments))

	rows, err := repository.db.Query(ctx, query, arguments...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Content", "postgres_content_list")
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "Content", "postgres_content_scan")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Content", "postgres_content_rows")
	}
	return records, total, nil
}

// # Scanning

func scanRecord(row pgx.Row) (*Record, error) {
	record := &Record{}
	err := row.Scan(
		&record.ContentID,
		&record.Kind,
		&record.ParentID,
		&record.AuthorID,
		&record.Status,
		&record.Title,
		&record.Body,
		&record.Metadata,
		&record.RejectionReason,
		&record.SubmittedAt,
		&record.ReviewedAt,
		&record.ReviewedBy,
		&record.AdminEdits,
		&record.Revision,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// orEmpty keeps NOT NULL JSONB columns at '{}' instead of 'null'.
func orEmpty[M ~map[string]string](values M) M {
	if values == nil {
		return M{}
	}
	return values
}
