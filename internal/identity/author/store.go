// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

import (
	"context"
	"time"
)

// Store defines persistence for authors.
type Store interface {
	// Create inserts a new author. Fails CONFLICT when the email or pseudo is taken.
	Create(ctx context.Context, author *Author) error

	// FindByID returns NOT_FOUND when the id is unknown.
	FindByID(ctx context.Context, id string) (*Author, error)

	// FindByEmail looks up an author by normalised email.
	FindByEmail(ctx context.Context, email string) (*Author, error)

	// UpdatePassword replaces the credential hash.
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error

	// UpdateProfile persists first name, last name and phone.
	UpdateProfile(ctx context.Context, author *Author) error
}
