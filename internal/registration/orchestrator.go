// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/identity/otp"
	"github.com/taibuivan/plume/internal/moderation"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/uuid"
)

// # Contracts

// Challenges issues and checks the email code.
type Challenges interface {
	IssueChallenge(ctx context.Context, input otp.IssueInput) (*otp.Issued, error)
	VerifyChallenge(ctx context.Context, identifier, code string) (*otp.Verification, error)
}

// Enroller creates the account and its first KYC submission in one transaction.
type Enroller interface {
	EnrollAuthor(ctx context.Context, account *author.Author, fields submission.KYCFields) (*moderation.Enrollment, error)
}

// Orchestrator runs the server side of the wizard.
type Orchestrator struct {
	challenges Challenges
	grants     author.GrantVerifier
	enroller   Enroller
	logger     *slog.Logger
}

// NewOrchestrator constructs a new [Orchestrator].
func NewOrchestrator(challenges Challenges, grants author.GrantVerifier, enroller Enroller, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{challenges: challenges, grants: grants, enroller: enroller, logger: logger}
}

// # Identity and Code

/*
Begin leaves the identity step and makes sure a code is on its way.

Description: When the wizard came back from awaiting_otp with the same email,
the outstanding challenge is reused and nothing is sent. Otherwise a new
challenge carrying the identity as its draft is issued.

Parameters:
  - ctx: context.Context
  - wizard: *Wizard at collecting_identity

Returns:
  - *otp.Issued: nil when the previous challenge was reused
  - error: VALIDATION_ERROR, RATE_LIMITED, PRECONDITION_FAILED
*/
func (orchestrator *Orchestrator) Begin(ctx context.Context, wizard *Wizard) (*otp.Issued, error) {
	if err := expectStep(wizard, StepCollectingIdentity); err != nil {
		return nil, err
	}
	if err := ValidateStep(StepCollectingIdentity, wizard.Draft); err != nil {
		return nil, err
	}

	if wizard.Draft.hasChallengeFor() {
		wizard.Step = StepAwaitingOTP
		return nil, nil
	}

	issued, err := orchestrator.issue(ctx, wizard)
	if err != nil {
		return nil, err
	}

	wizard.Step = StepAwaitingOTP
	return issued, nil
}

// Resend issues a fresh code. The previous one stops matching; within the
// cooldown the call fails RATE_LIMITED and the wizard is left untouched.
func (orchestrator *Orchestrator) Resend(ctx context.Context, wizard *Wizard) (*otp.Issued, error) {
	if err := expectStep(wizard, StepAwaitingOTP); err != nil {
		return nil, err
	}
	if err := ValidateStep(StepCollectingIdentity, wizard.Draft); err != nil {
		return nil, err
	}

	issued, err := orchestrator.issue(ctx, wizard)
	if err != nil {
		return nil, err
	}

	orchestrator.logger.InfoContext(ctx, "registration_code_resent", slog.String("handle", issued.Handle))
	return issued, nil
}

func (orchestrator *Orchestrator) issue(ctx context.Context, wizard *Wizard) (*otp.Issued, error) {
	identity := wizard.Draft.Identity()
	draft, err := json.Marshal(identity)
	if err != nil {
		return nil, fmt.Errorf("registration_draft_encode_failed: %w", err)
	}

	issued, err := orchestrator.challenges.IssueChallenge(ctx, otp.IssueInput{
		Identifier: identity.Email,
		Purpose:    otp.PurposeRegistration,
		Draft:      draft,
	})
	if err != nil {
		return nil, err
	}

	wizard.Draft.ChallengeEmail = identity.Email
	wizard.Draft.Handle = issued.Handle
	wizard.Draft.Grant = ""
	return issued, nil
}

/*
Confirm verifies the emailed code and stores the grant in the draft.

Parameters:
  - ctx: context.Context
  - wizard: *Wizard at awaiting_otp
  - code: string

Returns:
  - error: NOT_FOUND, EXPIRED, MISMATCH, ALREADY_CONSUMED, PRECONDITION_FAILED
*/
func (orchestrator *Orchestrator) Confirm(ctx context.Context, wizard *Wizard, code string) error {
	if err := expectStep(wizard, StepAwaitingOTP); err != nil {
		return err
	}

	verification, err := orchestrator.challenges.VerifyChallenge(ctx, wizard.Draft.Identity().Email, code)
	if err != nil {
		return err
	}
	if verification.Purpose != otp.PurposeRegistration {
		return apperr.PreconditionFailed("The code was not issued for registration")
	}

	// The identity sent with the challenge wins over anything edited since.
	var identity Identity
	if len(verification.Draft) > 0 {
		if err := json.Unmarshal(verification.Draft, &identity); err != nil {
			return apperr.Internal(fmt.Errorf("registration_draft_decode_failed: %w", err))
		}
		wizard.Draft.Pseudo = identity.Pseudo
	}

	wizard.Draft.Email = verification.Identifier
	wizard.Draft.Grant = verification.Grant
	wizard.Step = StepSettingCredential
	return nil
}

// # Completion

/*
Complete re-validates the whole wizard and enrolls the author.

Description: Every step is checked again and the grant must be a valid
registration grant for the draft's email. The author, the pending KYC
version 1 and the welcome notification are then written atomically.

Parameters:
  - ctx: context.Context
  - wizard: *Wizard at submitting_kyc

Returns:
  - *moderation.Enrollment: The new author and submission
  - error: VALIDATION_ERROR, UNAUTHORIZED (bad grant), CONFLICT (email or pseudo taken)
*/
func (orchestrator *Orchestrator) Complete(ctx context.Context, wizard *Wizard) (*moderation.Enrollment, error) {
	if err := expectStep(wizard, StepSubmittingKYC); err != nil {
		return nil, err
	}
	if err := ValidateUpTo(StepComplete, wizard.Draft); err != nil {
		return nil, err
	}

	draft := wizard.Draft
	email := author.NormalizeEmail(draft.Email)

	claims, err := orchestrator.grants.VerifyGrant(draft.Grant, string(otp.PurposeRegistration))
	if err != nil || claims.Subject != email {
		return nil, apperr.Unauthorized("The email verification has expired, please verify again")
	}

	hash, err := sec.HashPassword(draft.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("registration_hash_failed: %w", err))
	}

	account := &author.Author{
		ID:           uuid.New(),
		Email:        email,
		Pseudo:       strings.TrimSpace(draft.Pseudo),
		PasswordHash: hash,
		Status:       author.StatusActive,
		Role:         sec.RoleAuthor,
		FirstName:    strings.TrimSpace(draft.FirstName),
		LastName:     strings.TrimSpace(draft.LastName),
		Phone:        strings.TrimSpace(draft.Phone),
	}

	enrollment, err := orchestrator.enroller.EnrollAuthor(ctx, account, draft.KYC)
	if err != nil {
		return nil, err
	}

	wizard.Step = StepComplete
	wizard.Draft.Password = ""
	wizard.Draft.Grant = ""

	orchestrator.logger.InfoContext(ctx, "registration_completed", slog.String("author_id", account.ID))
	return enrollment, nil
}

func expectStep(wizard *Wizard, want Step) error {
	if wizard == nil || wizard.Step != want {
		return apperr.PreconditionFailed(fmt.Sprintf("The wizard must be at step %s", want))
	}
	return nil
}
