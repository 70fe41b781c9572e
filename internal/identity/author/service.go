// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/pkg/clock"
)

// # Contracts

// TokenProvider signs access tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, pseudo, role string, timeToLive time.Duration) (string, error)
}

// GrantVerifier checks OTP verification grants.
type GrantVerifier interface {
	VerifyGrant(grant, purpose string) (*sec.GrantClaims, error)
}

// passwordResetPurpose matches the OTP purpose a reset grant must carry.
const passwordResetPurpose = "password_reset"

// Service implements account use cases for existing authors.
type Service struct {
	store  Store
	tokens TokenProvider
	grants GrantVerifier
	ledger GrantLedger
	clock  clock.Clock
	logger *slog.Logger
}

// NewService constructs a new [Service].
func NewService(store Store, tokens TokenProvider, grants GrantVerifier, ledger GrantLedger, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{store: store, tokens: tokens, grants: grants, ledger: ledger, clock: clk, logger: logger}
}

// # Authentication Flow

// Session is the result of a successful login.
type Session struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int     `json:"expires_in"`
	Author      *Author `json:"author"`
}

/*
Login validates credentials and issues an access token.

Parameters:
  - ctx: context.Context
  - email: string
  - password: string

Returns:
  - *Session: Token and profile
  - error: UNAUTHORIZED for unknown email, wrong password or inactive account
*/
func (service *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	author, err := service.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, fmt.Errorf("author_login_lookup_failed: %w", err)
	}

	// Generic message to prevent account enumeration.
	if !sec.CheckPasswordHash(password, author.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !author.CanSignIn() {
		return nil, apperr.Forbidden("Account is " + string(author.Status))
	}

	token, err := service.tokens.GenerateAccessToken(author.ID, author.Pseudo, string(author.Role), constants.AccessTokenTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("author_login_token_failed: %w", err))
	}

	service.logger.InfoContext(ctx, "author_logged_in", slog.String("author_id", author.ID))

	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(constants.AccessTokenTTL.Seconds()),
		Author:      author,
	}, nil
}

// # Password Reset

/*
ResetPassword replaces the credential of the account named in a reset grant.

Description: The grant comes from a verified password_reset OTP challenge and
carries the account id bound at issuance. A grant resets the password once;
its id is recorded in the ledger until it expires.

Parameters:
  - ctx: context.Context
  - grant: string
  - newPassword: string

Returns:
  - error: VALIDATION_ERROR, UNAUTHORIZED (bad grant), NOT_FOUND
*/
func (service *Service) ResetPassword(ctx context.Context, grant, newPassword string) error {
	validator := &validate.Validator{}
	validator.Required(FieldGrant, grant)
	ValidatePassword(validator, newPassword)
	if err := validator.Err(); err != nil {
		return err
	}

	claims, err := service.grants.VerifyGrant(grant, passwordResetPurpose)
	if err != nil || claims.AccountID == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return apperr.Unauthorized("Verification grant is invalid or expired")
	}

	fresh, err := service.ledger.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return fmt.Errorf("author_reset_password_failed: %w", err)
	}
	if !fresh {
		return apperr.Unauthorized("Verification grant has already been used")
	}

	hash, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := service.store.UpdatePassword(ctx, claims.AccountID, hash, service.clock.Now()); err != nil {
		return fmt.Errorf("author_reset_password_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "author_password_reset", slog.String("author_id", claims.AccountID))
	return nil
}

// AccountIDByEmail resolves an email to an author id. It lets the OTP service
// bind password reset challenges to an account.
func (service *Service) AccountIDByEmail(ctx context.Context, email string) (string, error) {
	author, err := service.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	return author.ID, nil
}

// # Profile

// Profile returns the author record.
func (service *Service) Profile(ctx context.Context, authorID string) (*Author, error) {
	return service.store.FindByID(ctx, authorID)
}

// ProfileInput holds editable profile fields.
type ProfileInput struct {
	FirstName string
	LastName  string
	Phone     string
}

// UpdateProfile edits names and phone.
func (service *Service) UpdateProfile(ctx context.Context, authorID string, input ProfileInput) (*Author, error) {
	validator := &validate.Validator{}
	ValidateProfile(validator, input.FirstName, input.LastName, input.Phone)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	author, err := service.store.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	author.FirstName = strings.TrimSpace(input.FirstName)
	author.LastName = strings.TrimSpace(input.LastName)
	author.Phone = strings.TrimSpace(input.Phone)
	author.UpdatedAt = service.clock.Now()

	if err := service.store.UpdateProfile(ctx, author); err != nil {
		return nil, fmt.Errorf("author_update_profile_failed: %w", err)
	}
	return author, nil
}

// # Shared Rules

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword applies the credential policy.
func ValidatePassword(validator *validate.Validator, password string) {
	validator.Required(FieldPassword, password).
		MinLen(FieldPassword, password, PasswordMinLength).
		Custom(FieldPassword, len(password) > PasswordMaxLength, fmt.Sprintf("Maximum %d bytes", PasswordMaxLength))
}

// ValidatePseudo applies the display handle policy.
func ValidatePseudo(validator *validate.Validator, pseudo string) {
	validator.Required(FieldPseudo, pseudo).
		MinLen(FieldPseudo, strings.TrimSpace(pseudo), PseudoMinLength).
		MaxLen(FieldPseudo, strings.TrimSpace(pseudo), PseudoMaxLength)
}

// ValidateProfile applies the profile field policy.
func ValidateProfile(validator *validate.Validator, firstName, lastName, phone string) {
	validator.Required(FieldFirstName, firstName).
		MaxLen(FieldFirstName, firstName, 100).
		Required(FieldLastName, lastName).
		MaxLen(FieldLastName, lastName, 100).
		MaxLen(FieldPhone, phone, 32)
}
