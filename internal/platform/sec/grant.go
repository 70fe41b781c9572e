// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// GrantClaims is the payload of a verification grant.
//
// A grant proves that the holder just answered an OTP challenge for Subject
// (the normalised identifier) with the given Purpose. It is short-lived and
// never authenticates API calls on its own. The registered ID (jti) is unique
// per grant so one-shot consumers can record it.
type GrantClaims struct {
	jwt.RegisteredClaims

	Purpose   string `json:"pur"`
	AccountID string `json:"acc,omitempty"`
}

// ErrInvalidGrant is returned for grants that fail signature, expiry or purpose checks.
var ErrInvalidGrant = errors.New("sec: invalid verification grant")

// GrantSigner issues and checks HS256 verification grants.
type GrantSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewGrantSigner creates a signer using a shared secret.
func NewGrantSigner(secret, issuer string, ttl time.Duration) *GrantSigner {
	return &GrantSigner{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source (tests).
func (signer *GrantSigner) WithClock(now func() time.Time) *GrantSigner {
	signer.now = now
	return signer
}

// IssueGrant signs a grant for identifier and purpose.
func (signer *GrantSigner) IssueGrant(identifier, purpose, accountID string) (string, error) {
	issuedAt := signer.now()
	claims := GrantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   identifier,
			Issuer:    signer.issuer,
			Audience:  jwt.ClaimStrings{purpose},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(signer.ttl)),
		},
		Purpose:   purpose,
		AccountID: accountID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signer.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign grant: %w", err)
	}
	return signed, nil
}

// VerifyGrant parses a grant and checks that it was issued for purpose.
func (signer *GrantSigner) VerifyGrant(grant, purpose string) (*GrantClaims, error) {
	token, err := jwt.ParseWithClaims(grant, &GrantClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return signer.secret, nil
	},
		jwt.WithIssuer(signer.issuer),
		jwt.WithAudience(purpose),
		jwt.WithTimeFunc(signer.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGrant, err)
	}

	claims, ok := token.Claims.(*GrantClaims)
	if !ok || !token.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidGrant
	}
	return claims, nil
}
