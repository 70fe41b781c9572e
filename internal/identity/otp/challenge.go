// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package otp issues and verifies one-time email codes.

A challenge is keyed by the normalised identifier (email). Each issuance
replaces the previous record, so only the newest code can ever be verified.
A successful verification consumes the challenge and returns a short-lived
signed grant that later steps (registration Complete, password reset) present
as proof of control of the address.

# Lifecycle

	issued ──verify(ok)──▶ consumed
	   │ └─verify(bad) x5──▶ burned (reads as expired)
	   └──ttl elapsed──▶ expired
*/
package otp

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// # Purpose

// Purpose states why a challenge was issued.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password_reset"
)

// IsValid reports whether p is a known purpose.
func (p Purpose) IsValid() bool {
	return p == PurposeRegistration || p == PurposePasswordReset
}

// # Domain Entities

// Challenge is the stored state of one issued code.
//
// The code itself is never stored; only a digest salted with the handle.
type Challenge struct {
	Handle        string          `json:"handle"`
	Identifier    string          `json:"identifier"`
	Purpose       Purpose         `json:"purpose"`
	CodeDigest    string          `json:"code_digest"`
	IssuedAt      time.Time       `json:"issued_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	CooldownUntil time.Time       `json:"cooldown_until"`
	ConsumedAt    *time.Time      `json:"consumed_at,omitempty"`
	Attempts      int             `json:"attempts"`
	Burned        bool            `json:"burned"`
	Draft         json.RawMessage `json:"draft,omitempty"`
	AccountID     string          `json:"account_id,omitempty"`
}

// IsConsumed reports whether the code was already accepted once.
func (challenge *Challenge) IsConsumed() bool {
	return challenge.ConsumedAt != nil
}

// IsExpired reports whether the code can no longer be accepted at now.
func (challenge *Challenge) IsExpired(now time.Time) bool {
	return challenge.Burned || !now.Before(challenge.ExpiresAt)
}

// Matches compares code against the stored digest in constant time.
func (challenge *Challenge) Matches(code string) bool {
	candidate := digest(challenge.Handle, strings.TrimSpace(code))
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(challenge.CodeDigest)) == 1
}

// clone returns a deep copy so stores never share mutable state with callers.
func (challenge *Challenge) clone() *Challenge {
	if challenge == nil {
		return nil
	}
	copied := *challenge
	if challenge.ConsumedAt != nil {
		consumedAt := *challenge.ConsumedAt
		copied.ConsumedAt = &consumedAt
	}
	if challenge.Draft != nil {
		copied.Draft = append(json.RawMessage(nil), challenge.Draft...)
	}
	return &copied
}

// Verification is returned by a successful VerifyChallenge.
type Verification struct {
	Handle     string          `json:"handle"`
	Identifier string          `json:"identifier"`
	Purpose    Purpose         `json:"purpose"`
	Draft      json.RawMessage `json:"draft,omitempty"`
	AccountID  string          `json:"account_id,omitempty"`
	Grant      string          `json:"grant"`
	VerifiedAt time.Time       `json:"verified_at"`
}

// # Helpers

// NormalizeIdentifier lower-cases and trims an email so lookups are case-insensitive.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func digest(handle, code string) string {
	sum := sha256.Sum256([]byte(handle + ":" + code))
	return hex.EncodeToString(sum[:])
}

// # Field Identifiers

const (
	FieldIdentifier = "identifier"
	FieldPurpose    = "purpose"
	FieldCode       = "code"
	FieldDraft      = "draft"
)
