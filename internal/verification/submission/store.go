// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package submission

import (
	"context"
	"time"
)

// Filter narrows admin queue listings. Zero values match everything.
type Filter struct {
	Kind        Kind
	Status      Status
	AuthorID    string
	CurrentOnly bool
}

// Decision is the outcome written by a reviewer.
type Decision struct {
	SubmissionID string
	Status       Status
	Reason       string
	ReviewedBy   string
	ReviewedAt   time.Time
}

// Store persists submission versions.
type Store interface {
	// Insert adds a new version. Fails ALREADY_PENDING when the author already has a
	// pending version of the kind, CONFLICT when the version number is taken.
	Insert(ctx context.Context, submission *Submission) error

	// FindByID returns one version.
	FindByID(ctx context.Context, id string) (*Submission, error)

	// Current returns the highest version for (authorID, kind), or NOT_FOUND.
	Current(ctx context.Context, authorID string, kind Kind) (*Submission, error)

	// History returns every version for (authorID, kind), newest first.
	History(ctx context.Context, authorID string, kind Kind) ([]*Submission, error)

	// List returns a page of versions, newest first, and the total match count.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Submission, int, error)

	// Review applies decision only if the version is still pending
	// (compare-and-swap). A lost race fails ALREADY_REVIEWED.
	Review(ctx context.Context, decision Decision) (*Submission, error)
}
