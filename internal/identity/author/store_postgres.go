// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

import (
	"context"
	"time"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/dberr"
	"github.com/taibuivan/plume/internal/platform/postgres"
)

// PostgresStore implements [Store] on the users.author table.
//
// It runs on a pool or on a transaction; the caller decides through [postgres.DBTX].
type PostgresStore struct {
	db postgres.DBTX
}

// NewPostgresStore creates a [PostgresStore].
func NewPostgresStore(db postgres.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectAuthor = `
	SELECT id, email, pseudo, passwordhash, status, role, firstname, lastname, phone, createdat, updatedat
	FROM users.author`

/*
Create persists a new author.

Description: Unique violations on email or pseudo surface as CONFLICT with a
message naming the taken field.

Parameters:
  - ctx: context.Context
  - author: *Author

Returns:
  - error: CONFLICT or wrapped storage errors
*/
func (repository *PostgresStore) Create(ctx context.Context, author *Author) error {
	const query = `
		INSERT INTO users.author (
			id, email, pseudo, passwordhash, status, role, firstname, lastname, phone, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := repository.db.Exec(ctx, query,
		author.ID,
		author.Email,
		author.Pseudo,
		author.PasswordHash,
		author.Status,
		author.Role,
		author.FirstName,
		author.LastName,
		author.Phone,
		author.CreatedAt,
		author.UpdatedAt,
	)

	if dberr.IsUniqueViolation(err) {
		switch dberr.ConstraintName(err) {
		case "author_email_key":
			return apperr.Conflict("Email is already registered")
		case "author_pseudo_key":
			return apperr.Conflict("Pseudo is already taken")
		}
	}
	return dberr.Wrap(err, "Author", "postgres_author_create")
}

// FindByID implements [Store].
func (repository *PostgresStore) FindByID(ctx context.Context, id string) (*Author, error) {
	return repository.findOne(ctx, selectAuthor+` WHERE id = $1`, id)
}

// FindByEmail implements [Store].
func (repository *PostgresStore) FindByEmail(ctx context.Context, email string) (*Author, error) {
	return repository.findOne(ctx, selectAuthor+` WHERE email = $1`, email)
}

func (repository *PostgresStore) findOne(ctx context.Context, query string, argument string) (*Author, error) {
	author := &Author{}
	err := repository.db.QueryRow(ctx, query, argument).Scan(
		&author.ID,
		&author.Email,
		&author.Pseudo,
		&author.PasswordHash,
		&author.Status,
		&author.Role,
		&author.FirstName,
		&author.LastName,
		&author.Phone,
		&author.CreatedAt,
		&author.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Author", "postgres_author_find")
	}
	return author, nil
}

// UpdatePassword implements [Store].
func (repository *PostgresStore) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	const query = `UPDATE users.author SET passwordhash = $2, updatedat = $3 WHERE id = $1`

	tag, err := repository.db.Exec(ctx, query, id, passwordHash, at)
	if err != nil {
		return dberr.Wrap(err, "Author", "postgres_author_update_password")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Author")
	}
	return nil
}

// UpdateProfile implements [Store].
func (repository *PostgresStore) UpdateProfile(ctx context.Context, author *Author) error {
	const query = `
		UPDATE users.author
		SET firstname = $2, lastname = $3, phone = $4, updatedat = $5
		WHERE id = $1`

	tag, err := repository.db.Exec(ctx, query, author.ID, author.FirstName, author.LastName, author.Phone, author.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "Author", "postgres_author_update_profile")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Author")
	}
	return nil
}
