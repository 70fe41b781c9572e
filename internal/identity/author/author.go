// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package author holds the author identity aggregate and the account operations
around it (login, profile, password reset).

# Architecture

Authors are created only by the registration flow, inside the same store
transaction as their first KYC submission and welcome notification. This
package never deletes an author; suspension is an admin action handled
elsewhere.
*/
package author

import (
	"time"

	"github.com/taibuivan/plume/internal/platform/sec"
)

// # Account Status

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// # Domain Entities

// Author is a registered creator (or an admin, who shares the same table).
type Author struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Pseudo       string       `json:"pseudo"`
	PasswordHash string       `json:"-"`
	Status       Status       `json:"status"`
	Role         sec.UserRole `json:"role"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Phone        string       `json:"phone,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CanSignIn reports whether the account may obtain tokens.
func (author *Author) CanSignIn() bool {
	return author.Status == StatusActive
}

// # Field Identifiers

const (
	FieldEmail     = "email"
	FieldPseudo    = "pseudo"
	FieldPassword  = "password"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldPhone     = "phone"
	FieldGrant     = "grant"
)

// # Credential Policy

const (
	PasswordMinLength = 8
	PasswordMaxLength = 72 // bcrypt ignores bytes past 72
	PseudoMinLength   = 3
	PseudoMaxLength   = 30
)
