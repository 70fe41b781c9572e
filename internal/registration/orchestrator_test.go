// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package registration_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/identity/otp"
	"github.com/taibuivan/plume/internal/moderation"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/internal/registration"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/clock"
)

const email = "salma@example.com"

// # Fixtures

type capturingSender struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
}

func (sender *capturingSender) SendCode(_ context.Context, identifier string, _ otp.Purpose, code string, _ time.Time) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.codes == nil {
		sender.codes = make(map[string]string)
	}
	sender.codes[identifier] = code
	sender.sent++
	return nil
}

func (sender *capturingSender) last() string {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	return sender.codes[email]
}

func (sender *capturingSender) count() int {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	return sender.sent
}

type fixture struct {
	orchestrator *registration.Orchestrator
	clock        *clock.Manual
	sender       *capturingSender
	grants       *sec.GrantSigner
	memory       *storage.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewManual(time.Date(2026, 8, 3, 14, 0, 0, 0, time.UTC))
	sender := &capturingSender{}
	grants := sec.NewGrantSigner("secret", "plume.test", 15*time.Minute).WithClock(clk.Now)
	memory := storage.NewMemory()

	challenges := otp.NewService(otp.Dependencies{
		Store:  otp.NewMemoryStore(clk, 20*time.Minute),
		Clock:  clk,
		Sender: sender,
		Grants: grants,
	}, otp.Options{TTL: 10 * time.Minute, Cooldown: 60 * time.Second})

	engine := moderation.NewEngine(moderation.Dependencies{Tx: memory, Clock: clk})

	return &fixture{
		orchestrator: registration.NewOrchestrator(challenges, grants, engine, slog.Default()),
		clock:        clk,
		sender:       sender,
		grants:       grants,
		memory:       memory,
	}
}

// verified returns a wizard that has passed the code step.
func (f *fixture) verified(t *testing.T, pseudo string) *registration.Wizard {
	t.Helper()
	ctx := context.Background()

	wizard := registration.NewWizard()
	wizard.Draft.Email = email
	wizard.Draft.Pseudo = pseudo

	_, err := f.orchestrator.Begin(ctx, wizard)
	require.NoError(t, err)
	require.NoError(t, f.orchestrator.Confirm(ctx, wizard, f.sender.last()))
	return wizard
}

func fillRemaining(t *testing.T, wizard *registration.Wizard) {
	t.Helper()

	wizard.Draft.Password = "plume-2026!"
	require.NoError(t, wizard.Forward())

	wizard.Draft.FirstName = "Salma"
	wizard.Draft.LastName = "Rahmani"
	require.NoError(t, wizard.Forward())

	wizard.Draft.KYC = submission.KYCFields{
		CINNumber: "123456789012",
		DocFront:  "s3://plume-kyc/front.jpg",
		DocBack:   "s3://plume-kyc/back.jpg",
		Selfie:    "s3://plume-kyc/selfie.jpg",
	}
}

/*
TestOrchestrator_ResendCooldown reaches awaiting_otp, asks for a resend inside
the cooldown and again after it, then checks that only the newest code works.
*/
func TestOrchestrator_ResendCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wizard := registration.NewWizard()
	wizard.Draft.Email = " Salma@Example.com "
	wizard.Draft.Pseudo = "salma"

	issued, err := f.orchestrator.Begin(ctx, wizard)
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Equal(t, registration.StepAwaitingOTP, wizard.Step)
	firstCode := f.sender.last()

	f.clock.Advance(10 * time.Second)
	_, err = f.orchestrator.Resend(ctx, wizard)
	require.True(t, apperr.HasCode(err, apperr.CodeRateLimited))
	assert.Equal(t, issued.Handle, wizard.Draft.Handle)

	f.clock.Advance(51 * time.Second)
	reissued, err := f.orchestrator.Resend(ctx, wizard)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Handle, reissued.Handle)
	assert.Equal(t, reissued.Handle, wizard.Draft.Handle)
	secondCode := f.sender.last()

	if firstCode != secondCode {
		err = f.orchestrator.Confirm(ctx, wizard, firstCode)
		assert.True(t, apperr.HasCode(err, apperr.CodeMismatch))
		assert.Equal(t, registration.StepAwaitingOTP, wizard.Step)
	}

	require.NoError(t, f.orchestrator.Confirm(ctx, wizard, secondCode))
	assert.Equal(t, registration.StepSettingCredential, wizard.Step)
	assert.NotEmpty(t, wizard.Draft.Grant)
	assert.Equal(t, email, wizard.Draft.Email)
}

/*
TestOrchestrator_BackKeepsChallenge goes back from awaiting_otp and forward
again; the outstanding challenge is reused without a new mail.
*/
func TestOrchestrator_BackKeepsChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wizard := registration.NewWizard()
	wizard.Draft.Email = email
	wizard.Draft.Pseudo = "salma"

	_, err := f.orchestrator.Begin(ctx, wizard)
	require.NoError(t, err)
	code := f.sender.last()

	require.NoError(t, wizard.Back())
	assert.Equal(t, registration.StepCollectingIdentity, wizard.Step)

	wizard.Draft.Pseudo = "salma_r"
	issued, err := f.orchestrator.Begin(ctx, wizard)
	require.NoError(t, err)
	assert.Nil(t, issued)
	assert.Equal(t, 1, f.sender.count())

	require.NoError(t, f.orchestrator.Confirm(ctx, wizard, code))
	assert.Equal(t, "salma", wizard.Draft.Pseudo, "the identity sent with the code wins")

	// A different email needs its own challenge.
	other := registration.NewWizard()
	other.Draft = wizard.Draft
	other.Draft.Email = "nour@example.com"
	issued, err = f.orchestrator.Begin(ctx, other)
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Empty(t, other.Draft.Grant)
	assert.Equal(t, 2, f.sender.count())
}

/*
TestOrchestrator_Complete enrolls the author with KYC v1 and the welcome notification.
*/
func TestOrchestrator_Complete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wizard := f.verified(t, "salma")

	wizard.Draft.Password = "short"
	err := wizard.Forward()
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Equal(t, registration.StepSettingCredential, wizard.Step)

	fillRemaining(t, wizard)
	assert.True(t, apperr.HasCode(wizard.Forward(), apperr.CodePreconditionFailed))

	enrollment, err := f.orchestrator.Complete(ctx, wizard)
	require.NoError(t, err)
	assert.Equal(t, registration.StepComplete, wizard.Step)
	assert.Empty(t, wizard.Draft.Password)
	assert.Equal(t, submission.StatusPending, enrollment.KYC.Status)
	assert.Equal(t, 1, enrollment.KYC.Version)

	stored, err := f.memory.Authors.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("plume-2026!", stored.PasswordHash))
	assert.Equal(t, sec.RoleAuthor, stored.Role)

	welcome, _, err := f.memory.Notifications.List(ctx, notification.Author(stored.ID), false, 10, 0)
	require.NoError(t, err)
	require.Len(t, welcome, 1)
	assert.Equal(t, notification.TypeWelcome, welcome[0].Type)

	assert.True(t, apperr.HasCode(wizard.Back(), apperr.CodePreconditionFailed))
}

/*
TestOrchestrator_CompleteRejectsTampering re-validates what the client sends back.
*/
func TestOrchestrator_CompleteRejectsTampering(t *testing.T) {
	ctx := context.Background()

	t.Run("skipped_steps", func(t *testing.T) {
		f := newFixture(t)
		wizard := &registration.Wizard{Step: registration.StepSubmittingKYC, Draft: registration.Draft{Email: email, Pseudo: "salma"}}

		_, err := f.orchestrator.Complete(ctx, wizard)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})

	t.Run("grant_for_another_email", func(t *testing.T) {
		f := newFixture(t)
		wizard := f.verified(t, "salma")
		fillRemaining(t, wizard)

		grant, err := f.grants.IssueGrant("nour@example.com", string(otp.PurposeRegistration), "")
		require.NoError(t, err)
		wizard.Draft.Grant = grant

		_, err = f.orchestrator.Complete(ctx, wizard)
		assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	})

	t.Run("expired_grant", func(t *testing.T) {
		f := newFixture(t)
		wizard := f.verified(t, "salma")
		fillRemaining(t, wizard)

		f.clock.Advance(16 * time.Minute)
		_, err := f.orchestrator.Complete(ctx, wizard)
		assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	})

	t.Run("wrong_step", func(t *testing.T) {
		f := newFixture(t)
		wizard := f.verified(t, "salma")

		_, err := f.orchestrator.Complete(ctx, wizard)
		assert.True(t, apperr.HasCode(err, apperr.CodePreconditionFailed))
	})
}

/*
TestOrchestrator_CompleteIsAtomic checks that a taken pseudo leaves no account,
no KYC submission and no notification behind.
*/
func TestOrchestrator_CompleteIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.memory.Authors.Create(ctx, &author.Author{
		ID: "0190a4a8-0000-7000-8000-0000000000aa", Email: "first@example.com", Pseudo: "Salma",
	}))

	wizard := f.verified(t, "salma")
	fillRemaining(t, wizard)

	_, err := f.orchestrator.Complete(ctx, wizard)
	require.True(t, apperr.HasCode(err, apperr.CodeConflict))
	assert.Equal(t, registration.StepSubmittingKYC, wizard.Step)

	_, err = f.memory.Authors.FindByEmail(ctx, email)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, total, err := f.memory.Submissions.List(ctx, submission.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = f.memory.Notifications.List(ctx, notification.AdminInbox, false, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}
