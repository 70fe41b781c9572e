// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/plume/internal/platform/request"
	"github.com/taibuivan/plume/internal/platform/respond"
)

// Handler exposes challenge issuance and verification.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the OTP endpoints.
//
// # Endpoints
//   - POST /issue  : Issues (or reissues) a code.
//   - POST /verify : Verifies a code and returns a grant.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/issue", handler.issue)
	router.Post("/verify", handler.verify)
	return router
}

// # Request Payloads

type issueRequest struct {
	Identifier string          `json:"identifier" validate:"required,email"`
	Purpose    string          `json:"purpose" validate:"required,oneof=registration password_reset"`
	Draft      json.RawMessage `json:"draft,omitempty"`
}

type verifyRequest struct {
	Identifier string `json:"identifier" validate:"required,email"`
	Code       string `json:"code" validate:"required,len=6,numeric"`
}

/*
Issue sends a one-time code to the identifier.

POST /api/v1/otp/issue

Response:
  - 202: Issued: handle and deadlines
  - 400: VALIDATION_ERROR
  - 429: RATE_LIMITED (Retry-After header set)
*/
func (handler *Handler) issue(writer http.ResponseWriter, request *http.Request) {
	var input issueRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issued, err := handler.service.IssueChallenge(request.Context(), IssueInput{
		Identifier: input.Identifier,
		Purpose:    Purpose(input.Purpose),
		Draft:      input.Draft,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, issued)
}

/*
Verify checks a code.

POST /api/v1/otp/verify

Response:
  - 200: Verification: purpose, draft or account id, grant
  - 400: MISMATCH | EXPIRED | ALREADY_CONSUMED
  - 404: NOT_FOUND
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	verification, err := handler.service.VerifyChallenge(request.Context(), input.Identifier, input.Code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, verification)
}
