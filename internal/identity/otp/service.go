// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/internal/platform/keylock"
	"github.com/taibuivan/plume/internal/platform/metrics"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/pkg/clock"
)

// maxDraftBytes caps the registration draft retained with a challenge.
const maxDraftBytes = 4 << 10

// # Contracts

// Sender delivers a code out-of-band. The code never leaves the service any other way.
type Sender interface {
	SendCode(ctx context.Context, identifier string, purpose Purpose, code string, expiresAt time.Time) error
}

// GrantIssuer signs the proof of a successful verification.
type GrantIssuer interface {
	IssueGrant(identifier, purpose, accountID string) (string, error)
}

// AccountResolver maps an email to an existing account id (password reset).
type AccountResolver interface {
	AccountIDByEmail(ctx context.Context, email string) (string, error)
}

// Options tunes the challenge policy.
type Options struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

func (options Options) withDefaults() Options {
	if options.TTL <= 0 {
		options.TTL = constants.DefaultOTPTTL
	}
	if options.Cooldown <= 0 {
		options.Cooldown = constants.DefaultOTPCooldown
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = constants.OTPMaxAttempts
	}
	return options
}

// Service implements the challenge lifecycle.
type Service struct {
	store    Store
	locker   *keylock.Locker
	clock    clock.Clock
	sender   Sender
	grants   GrantIssuer
	accounts AccountResolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
	options  Options

	generateCode func() (string, error)
}

// Dependencies groups the collaborators of [Service].
type Dependencies struct {
	Store    Store
	Locker   *keylock.Locker
	Clock    clock.Clock
	Sender   Sender
	Grants   GrantIssuer
	Accounts AccountResolver
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewService constructs a [Service].
func NewService(deps Dependencies, options Options) *Service {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Locker == nil {
		deps.Locker = keylock.New(0)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		store:        deps.Store,
		locker:       deps.Locker,
		clock:        deps.Clock,
		sender:       deps.Sender,
		grants:       deps.Grants,
		accounts:     deps.Accounts,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		options:      options.withDefaults(),
		generateCode: sec.GenerateOTPCode,
	}
}

// # Issuance

// IssueInput describes an issuance request.
type IssueInput struct {
	Identifier string
	Purpose    Purpose
	Draft      json.RawMessage
}

// Issued is returned to the caller. It never carries the code.
type Issued struct {
	Handle        string    `json:"handle"`
	ExpiresAt     time.Time `json:"expires_at"`
	CooldownUntil time.Time `json:"cooldown_until"`
}

/*
IssueChallenge creates a fresh challenge for an identifier and mails its code.

Description: Refused with RATE_LIMITED while the previous issuance's cooldown
is running. A new challenge supersedes the previous one, whose code stops
matching immediately. If delivery fails the cooldown is lifted so the caller
can retry at once.

Parameters:
  - ctx: context.Context
  - input: IssueInput

Returns:
  - *Issued: Handle and deadlines
  - error: VALIDATION_ERROR, RATE_LIMITED, SERVICE_UNAVAILABLE
*/
func (service *Service) IssueChallenge(ctx context.Context, input IssueInput) (*Issued, error) {
	identifier := NormalizeIdentifier(input.Identifier)
	if err := validateIssue(identifier, input); err != nil {
		return nil, err
	}

	var accountID string
	if input.Purpose == PurposePasswordReset {
		if service.accounts == nil {
			return nil, apperr.PreconditionFailed("Password reset is not available")
		}
		resolved, err := service.accounts.AccountIDByEmail(ctx, identifier)
		if apperr.HasCode(err, apperr.CodeNotFound) {
			// Unknown addresses get an indistinguishable answer and no mail.
			service.logger.InfoContext(ctx, "otp_issue_unknown_account")
			now := service.clock.Now()
			return &Issued{Handle: ulid.Make().String(), ExpiresAt: now.Add(service.options.TTL), CooldownUntil: now.Add(service.options.Cooldown)}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("otp_resolve_account_failed: %w", err)
		}
		accountID = resolved
	}

	var issued *Issued
	err := service.locker.Do(ctx, keylock.Key("otp", identifier), func(ctx context.Context) error {
		code, err := service.generateCode()
		if err != nil {
			return apperr.Internal(err)
		}

		var challenge *Challenge
		err = service.store.Mutate(ctx, identifier, func(current *Challenge) (*Challenge, error) {
			now := service.clock.Now()

			if current != nil && now.Before(current.CooldownUntil) {
				wait := current.CooldownUntil.Sub(now)
				return nil, apperr.RateLimited(int(math.Ceil(wait.Seconds())))
			}

			handle := ulid.Make().String()
			challenge = &Challenge{
				Handle:        handle,
				Identifier:    identifier,
				Purpose:       input.Purpose,
				CodeDigest:    digest(handle, code),
				IssuedAt:      now,
				ExpiresAt:     now.Add(service.options.TTL),
				CooldownUntil: now.Add(service.options.Cooldown),
				Draft:         input.Draft,
				AccountID:     accountID,
			}
			return challenge, nil
		})
		if err != nil {
			return err
		}

		if err := service.sender.SendCode(ctx, identifier, input.Purpose, code, challenge.ExpiresAt); err != nil {
			service.liftCooldown(ctx, identifier, challenge.Handle)
			service.logger.ErrorContext(ctx, "otp_delivery_failed", slog.String("handle", challenge.Handle), slog.Any("error", err))
			unavailable := apperr.ServiceUnavailable("The verification code could not be delivered, please retry")
			unavailable.Cause = err
			return unavailable
		}

		issued = &Issued{Handle: challenge.Handle, ExpiresAt: challenge.ExpiresAt, CooldownUntil: challenge.CooldownUntil}
		return nil
	})

	if err != nil {
		service.metrics.ObserveOTP("issue", outcomeOf(err))
		return nil, err
	}

	service.metrics.ObserveOTP("issue", "issued")
	service.logger.InfoContext(ctx, "otp_issued",
		slog.String("handle", issued.Handle),
		slog.String("purpose", string(input.Purpose)),
	)
	return issued, nil
}

// liftCooldown clears the cooldown of an undeliverable challenge.
func (service *Service) liftCooldown(ctx context.Context, identifier, handle string) {
	err := service.store.Mutate(ctx, identifier, func(current *Challenge) (*Challenge, error) {
		if current == nil || current.Handle != handle {
			return nil, nil
		}
		current.CooldownUntil = current.IssuedAt
		return current, nil
	})
	if err != nil {
		service.logger.ErrorContext(ctx, "otp_cooldown_reset_failed", slog.Any("error", err))
	}
}

// # Verification

/*
VerifyChallenge checks code against the newest challenge for identifier.

Description: The outcome is decided in this order: no challenge (NOT_FOUND),
burned challenge (EXPIRED), wrong code (MISMATCH, counted towards the attempt
limit), already used (ALREADY_CONSUMED), past its TTL (EXPIRED). A match
consumes the challenge and returns its payload with a signed grant.

Parameters:
  - ctx: context.Context
  - identifier: string
  - code: string

Returns:
  - *Verification: Payload and grant
  - error: NOT_FOUND, EXPIRED, MISMATCH, ALREADY_CONSUMED
*/
func (service *Service) VerifyChallenge(ctx context.Context, identifier, code string) (*Verification, error) {
	identifier = NormalizeIdentifier(identifier)

	var verified *Challenge
	var verifiedAt time.Time

	err := service.locker.Do(ctx, keylock.Key("otp", identifier), func(ctx context.Context) error {
		return service.store.Mutate(ctx, identifier, func(current *Challenge) (*Challenge, error) {
			now := service.clock.Now()

			switch {
			case current == nil:
				return nil, apperr.NotFound("Verification code")
			case current.Burned:
				return nil, apperr.Expired("Too many attempts, request a new code")
			case !current.Matches(code):
				if current.IsConsumed() || current.IsExpired(now) {
					return nil, apperr.Mismatch("The code is incorrect")
				}
				current.Attempts++
				if current.Attempts >= service.options.MaxAttempts {
					current.Burned = true
				}
				return current, apperr.Mismatch("The code is incorrect")
			case current.IsConsumed():
				return nil, apperr.AlreadyConsumed("The code has already been used")
			case current.IsExpired(now):
				return nil, apperr.Expired("The code has expired, request a new one")
			}

			current.ConsumedAt = &now
			verified, verifiedAt = current, now
			return current, nil
		})
	})

	if err != nil {
		service.metrics.ObserveOTP("verify", outcomeOf(err))
		return nil, err
	}

	grant, err := service.grants.IssueGrant(identifier, string(verified.Purpose), verified.AccountID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("otp_grant_failed: %w", err))
	}

	service.metrics.ObserveOTP("verify", "verified")
	service.logger.InfoContext(ctx, "otp_verified",
		slog.String("handle", verified.Handle),
		slog.String("purpose", string(verified.Purpose)),
	)

	return &Verification{
		Handle:     verified.Handle,
		Identifier: identifier,
		Purpose:    verified.Purpose,
		Draft:      verified.Draft,
		AccountID:  verified.AccountID,
		Grant:      grant,
		VerifiedAt: verifiedAt,
	}, nil
}

// # Helpers

func validateIssue(identifier string, input IssueInput) error {
	v := &validate.Validator{}
	v.Required(FieldIdentifier, identifier).
		Email(FieldIdentifier, identifier).
		OneOf(FieldPurpose, string(input.Purpose), string(PurposeRegistration), string(PurposePasswordReset)).
		Custom(FieldDraft, len(input.Draft) > maxDraftBytes, fmt.Sprintf("Maximum %d bytes", maxDraftBytes)).
		Custom(FieldDraft, input.Purpose == PurposePasswordReset && len(input.Draft) > 0, "Not allowed for password reset")
	return v.Err()
}

// outcomeOf maps an error to a metrics label.
func outcomeOf(err error) string {
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		return appError.Code
	}
	return "error"
}
