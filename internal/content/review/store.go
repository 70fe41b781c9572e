// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import "context"

// Filter narrows content listings. Zero values match everything.
type Filter struct {
	Kind     Kind
	Status   Status
	AuthorID string
	ParentID string
}

// Store persists content review records.
type Store interface {
	// Create inserts a new record at revision 0.
	Create(ctx context.Context, record *Record) error

	// FindByID returns a record or NOT_FOUND.
	FindByID(ctx context.Context, contentID string) (*Record, error)

	// Update replaces the record if its stored revision still equals
	// expectedRevision, then sets record.Revision to expectedRevision+1.
	// A stale revision fails CONFLICT.
	Update(ctx context.Context, record *Record, expectedRevision int) error

	// List returns a page of records, most recently updated first, and the total count.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int, error)
}
