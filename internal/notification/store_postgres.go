// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notification

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/dberr"
	"github.com/taibuivan/plume/internal/platform/postgres"
)

// PostgresStore implements [Store] on users.notification.
type PostgresStore struct {
	db postgres.DBTX
}

// NewPostgresStore creates a [PostgresStore].
func NewPostgresStore(db postgres.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectNotification = `
	SELECT id, recipientkind, recipientid, type, message, link,
	       sourceentityid, transitionversion, idempotencykey, isread, createdat
	FROM users.notification`

/*
InsertIfAbsent stores a notification exactly once.

Description: ON CONFLICT DO NOTHING on the idempotency key makes a replayed
emission a no-op. When nothing was inserted the existing row is read back so
the caller always gets the stored record.

Parameters:
  - ctx: context.Context
  - n: *Notification

Returns:
  - *Notification: The stored record
  - bool: Whether this call created it
  - error: Wrapped storage errors
*/
func (repository *PostgresStore) InsertIfAbsent(ctx context.Context, n *Notification) (*Notification, bool, error) {
	const query = `
		INSERT INTO users.notification (
			id, recipientkind, recipientid, type, message, link,
			sourceentityid, transitionversion, idempotencykey, isread, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (idempotencykey) DO NOTHING`

	tag, err := repository.db.Exec(ctx, query,
		n.ID,
		n.Recipient.Kind,
		n.Recipient.ID,
		n.Type,
		n.Message,
		n.Link,
		n.SourceEntityID,
		n.TransitionVersion,
		n.IdempotencyKey,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return nil, false, dberr.Wrap(err, "Notification", "postgres_notification_insert")
	}
	if tag.RowsAffected() == 1 {
		stored := *n
		return &stored, true, nil
	}

	existing, err := scanNotification(repository.db.QueryRow(ctx, selectNotification+` WHERE idempotencykey = $1`, n.IdempotencyKey))
	if err != nil {
		return nil, false, dberr.Wrap(err, "Notification", "postgres_notification_find_key")
	}
	return existing, false, nil
}

// List implements [Store].
func (repository *PostgresStore) List(ctx context.Context, recipient Recipient, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	const where = ` WHERE recipientkind = $1 AND recipientid = $2 AND (NOT $3 OR NOT isread)`

	var total int
	err := repository.db.QueryRow(ctx, `SELECT count(*) FROM users.notification`+where,
		recipient.Kind, recipient.ID, unreadOnly).Scan(&total)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Notification", "postgres_notification_count")
	}

	rows, err := repository.db.Query(ctx, selectNotification+where+` ORDER BY createdat DESC, id DESC LIMIT $4 OFFSET $5`,
		recipient.Kind, recipient.ID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Notification", "postgres_notification_list")
	}
	defer rows.Close()

	items := make([]*Notification, 0)
	for rows.Next() {
		item, err := scanNotification(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "Notification", "postgres_notification_scan")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Notification", "postgres_notification_rows")
	}
	return items, total, nil
}

// MarkRead implements [Store].
func (repository *PostgresStore) MarkRead(ctx context.Context, recipient Recipient, id string) error {
	const query = `
		UPDATE users.notification SET isread = TRUE
		WHERE id = $1 AND recipientkind = $2 AND recipientid = $3`

	return repository.execScoped(ctx, query, "postgres_notification_mark_read", id, recipient.Kind, recipient.ID)
}

// Delete implements [Store].
func (repository *PostgresStore) Delete(ctx context.Context, recipient Recipient, id string) error {
	const query = `DELETE FROM users.notification WHERE id = $1 AND recipientkind = $2 AND recipientid = $3`

	return repository.execScoped(ctx, query, "postgres_notification_delete", id, recipient.Kind, recipient.ID)
}

// UnreadCount implements [Store].
func (repository *PostgresStore) UnreadCount(ctx context.Context, recipient Recipient) (int, error) {
	const query = `
		SELECT count(*) FROM users.notification
		WHERE recipientkind = $1 AND recipientid = $2 AND NOT isread`

	var count int
	if err := repository.db.QueryRow(ctx, query, recipient.Kind, recipient.ID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "Notification", "postgres_notification_unread_count")
	}
	return count, nil
}

func (repository *PostgresStore) execScoped(ctx context.Context, query, action string, arguments ...any) error {
	tag, err := repository.db.Exec(ctx, query, arguments...)
	if err != nil {
		return dberr.Wrap(err, "Notification", action)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Notification")
	}
	return nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	n := &Notification{}
	err := row.Scan(
		&n.ID,
		&n.Recipient.Kind,
		&n.Recipient.ID,
		&n.Type,
		&n.Message,
		&n.Link,
		&n.SourceEntityID,
		&n.TransitionVersion,
		&n.IdempotencyKey,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}
