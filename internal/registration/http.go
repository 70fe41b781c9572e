// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package registration

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/plume/internal/identity/otp"
	"github.com/taibuivan/plume/internal/moderation"
	requestutil "github.com/taibuivan/plume/internal/platform/request"
	"github.com/taibuivan/plume/internal/platform/respond"
	"github.com/taibuivan/plume/internal/platform/validate"
)

// Handler exposes the sign-up wizard.
type Handler struct {
	orchestrator *Orchestrator
}

// NewHandler constructs a new [Handler].
func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// Routes returns a [chi.Router] with the registration endpoints.
// Every call takes the client-held wizard and returns its next state.
//
// # Endpoints
//   - POST /start    : Leaves the identity step and mails a code.
//   - POST /resend   : Mails a new code (cooldown applies).
//   - POST /verify   : Checks the code.
//   - POST /forward  : Validates a local step and advances.
//   - POST /back     : Steps back without side effects.
//   - POST /complete : Creates the account and the first KYC submission.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/start", handler.start)
	router.Post("/resend", handler.resend)
	router.Post("/verify", handler.verify)
	router.Post("/forward", handler.forward)
	router.Post("/back", handler.back)
	router.Post("/complete", handler.complete)
	return router
}

// # Payloads

type wizardRequest struct {
	Wizard Wizard `json:"wizard"`
	Code   string `json:"code,omitempty"`
}

type wizardResponse struct {
	Wizard     *Wizard                `json:"wizard"`
	Challenge  *otp.Issued            `json:"challenge,omitempty"`
	Enrollment *moderation.Enrollment `json:"enrollment,omitempty"`
}

func decodeWizard(request *http.Request) (*wizardRequest, error) {
	var input wizardRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		return nil, err
	}
	if !input.Wizard.Step.IsValid() {
		return nil, validate.RequiredError("wizard.step", "Unknown step")
	}
	return &input, nil
}

/*
Start sends the first code.

POST /api/v1/registration/start

Response:
  - 202: {wizard, challenge}
  - 400: VALIDATION_ERROR
  - 429: RATE_LIMITED
*/
func (handler *Handler) start(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeWizard(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issued, err := handler.orchestrator.Begin(request.Context(), &input.Wizard)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, wizardResponse{Wizard: &input.Wizard, Challenge: issued})
}

// resend handles POST /api/v1/registration/resend.
func (handler *Handler) resend(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeWizard(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issued, err := handler.orchestrator.Resend(request.Context(), &input.Wizard)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, wizardResponse{Wizard: &input.Wizard, Challenge: issued})
}

// verify handles POST /api/v1/registration/verify.
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeWizard(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.Code == "" {
		respond.Error(writer, request, validate.RequiredError(otp.FieldCode, "This field is required"))
		return
	}

	if err := handler.orchestrator.Confirm(request.Context(), &input.Wizard, input.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, wizardResponse{Wizard: &input.Wizard})
}

// forward handles POST /api/v1/registration/forward.
func (handler *Handler) forward(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeWizard(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := input.Wizard.Forward(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, wizardResponse{Wizard: &input.Wizard})
}

// back handles POST /api/v1/registration/back.
func (handler *Handler) back(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeWizard(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := input.Wizard.Back(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, wizardResponse{Wizard: &input.Wizard})
}

/*
Complete creates the account.

POST /api/v1/registration/complete

Response:
  - 201: {wizard, enrollment}
  - 400: VALIDATION_ERROR
  - 401: UNAUTHORIZED (grant missing, expired or for another email)
  - 409: CONFLICT (email or pseudo taken)
*/
func (handler *Handler) complete(writer http.ResponseWriter, request *http.Request) {
	input, err := decodeWizard(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	enrollment, err := handler.orchestrator.Complete(request.Context(), &input.Wizard)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, wizardResponse{Wizard: &input.Wizard, Enrollment: enrollment})
}
