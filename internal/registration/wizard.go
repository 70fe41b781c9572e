// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package registration drives author sign-up from the first email to the
enrolled account.

The wizard is held by the client and nothing is persisted until the final
step. Each request carries the whole [Wizard] back, and the server re-checks
it, so a tampered wizard can never skip validation.

# Steps

	collecting_identity ─▶ awaiting_otp ─▶ setting_credential ─▶ collecting_profile ─▶ submitting_kyc ─▶ complete
	        ▲                   │
	        └──────back─────────┘  (the issued challenge is kept)

Steps that need the server (issuing and verifying the code, completing) go
through the [Orchestrator]; the others advance with [Wizard.Forward].
*/
package registration

import (
	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/internal/verification/submission"
)

// # Steps

// Step is a wizard position.
type Step string

const (
	StepCollectingIdentity Step = "collecting_identity"
	StepAwaitingOTP        Step = "awaiting_otp"
	StepSettingCredential  Step = "setting_credential"
	StepCollectingProfile  Step = "collecting_profile"
	StepSubmittingKYC      Step = "submitting_kyc"
	StepComplete           Step = "complete"
)

var order = []Step{
	StepCollectingIdentity,
	StepAwaitingOTP,
	StepSettingCredential,
	StepCollectingProfile,
	StepSubmittingKYC,
	StepComplete,
}

func (s Step) index() int {
	for i, step := range order {
		if step == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether s is a known step.
func (s Step) IsValid() bool {
	return s.index() >= 0
}

// # Draft

// Draft is everything the author typed so far.
type Draft struct {
	Email     string               `json:"email"`
	Pseudo    string               `json:"pseudo"`
	Password  string               `json:"password,omitempty"`
	FirstName string               `json:"first_name,omitempty"`
	LastName  string               `json:"last_name,omitempty"`
	Phone     string               `json:"phone,omitempty"`
	KYC       submission.KYCFields `json:"kyc"`

	// ChallengeEmail is the address the outstanding challenge was issued for.
	ChallengeEmail string `json:"challenge_email,omitempty"`
	Handle         string `json:"handle,omitempty"`
	Grant          string `json:"grant,omitempty"`
}

// Identity is the part of the draft sent along with the OTP challenge.
type Identity struct {
	Email  string `json:"email"`
	Pseudo string `json:"pseudo"`
}

// Identity returns the normalised identity of the draft.
func (draft Draft) Identity() Identity {
	return Identity{Email: author.NormalizeEmail(draft.Email), Pseudo: draft.Pseudo}
}

// hasChallengeFor reports whether a challenge is outstanding for the draft's email.
func (draft Draft) hasChallengeFor() bool {
	return draft.Handle != "" && draft.ChallengeEmail == author.NormalizeEmail(draft.Email)
}

// # Wizard

// Wizard is the client-held registration state.
type Wizard struct {
	Step  Step  `json:"step"`
	Draft Draft `json:"draft"`
}

// NewWizard returns a wizard at its first step.
func NewWizard() *Wizard {
	return &Wizard{Step: StepCollectingIdentity}
}

/*
Forward validates the current step and moves to the next one.

Description: Only the local steps (credential and profile) advance here.
Identity, code verification and completion need the [Orchestrator].

Returns:
  - error: VALIDATION_ERROR, PRECONDITION_FAILED
*/
func (wizard *Wizard) Forward() error {
	switch wizard.Step {
	case StepSettingCredential, StepCollectingProfile:
	default:
		return apperr.PreconditionFailed("This step is completed by the server")
	}

	if err := ValidateStep(wizard.Step, wizard.Draft); err != nil {
		return err
	}
	wizard.Step = order[wizard.Step.index()+1]
	return nil
}

// Back returns to the previous step. It never touches the draft, so an
// outstanding challenge stays valid.
func (wizard *Wizard) Back() error {
	position := wizard.Step.index()
	if position <= 0 || wizard.Step == StepComplete {
		return apperr.PreconditionFailed("Cannot go back from this step")
	}
	wizard.Step = order[position-1]
	return nil
}

// # Validation

/*
ValidateStep checks the fields a step collects.

Parameters:
  - step: Step
  - draft: Draft

Returns:
  - error: VALIDATION_ERROR, nil when the step is satisfied
*/
func ValidateStep(step Step, draft Draft) error {
	validator := &validate.Validator{}
	checkStep(validator, step, draft)
	return validator.Err()
}

// ValidateUpTo checks every step before last, in order, and reports all failures at once.
func ValidateUpTo(last Step, draft Draft) error {
	validator := &validate.Validator{}
	for _, step := range order[:last.index()] {
		checkStep(validator, step, draft)
	}
	return validator.Err()
}

func checkStep(validator *validate.Validator, step Step, draft Draft) {
	switch step {
	case StepCollectingIdentity:
		validator.Required(author.FieldEmail, draft.Email).
			Email(author.FieldEmail, author.NormalizeEmail(draft.Email))
		author.ValidatePseudo(validator, draft.Pseudo)
	case StepAwaitingOTP:
		validator.Required(author.FieldGrant, draft.Grant)
	case StepSettingCredential:
		author.ValidatePassword(validator, draft.Password)
	case StepCollectingProfile:
		author.ValidateProfile(validator, draft.FirstName, draft.LastName, draft.Phone)
	case StepSubmittingKYC:
		submission.ValidateKYC(validator, draft.KYC)
	}
}
