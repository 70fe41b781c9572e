// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Account Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Reviews KYC, payout methods and content
	RoleAdmin UserRole = "admin"

	// Publishes stories and chapters once verified
	RoleAuthor UserRole = "author"
)

// IsValid reports whether r is a known role.
func (r UserRole) IsValid() bool {
	return r.level() > 0
}

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 20
	case RoleAuthor:
		return 10
	default:
		return 0
	}
}
