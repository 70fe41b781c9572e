// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/plume/internal/platform/middleware"
	requestutil "github.com/taibuivan/plume/internal/platform/request"
	"github.com/taibuivan/plume/internal/platform/respond"
)

// Handler exposes account endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with account routes.
//
// # Endpoints
//   - POST  /login          : Exchanges credentials for an access token.
//   - POST  /password/reset : Sets a new password with a reset grant.
//   - GET   /me             : Returns the caller's profile.
//   - PATCH /me             : Edits the caller's profile.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/password/reset", handler.resetPassword)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
		r.Patch("/me", handler.updateMe)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Grant    string `json:"grant"`
	Password string `json:"password"`
}

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

/*
Login authenticates an author.

POST /api/v1/auth/login

Response:
  - 200: Session
  - 401: UNAUTHORIZED
  - 403: FORBIDDEN (suspended or inactive)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
ResetPassword sets a new password.

POST /api/v1/auth/password/reset

Response:
  - 204: No Content
  - 400: VALIDATION_ERROR
  - 401: UNAUTHORIZED (invalid grant)
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ResetPassword(request.Context(), input.Grant, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// me handles GET /api/v1/auth/me.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	author, err := handler.service.Profile(request.Context(), authorID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, author)
}

// updateMe handles PATCH /api/v1/auth/me.
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input profileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	author, err := handler.service.UpdateProfile(request.Context(), authorID, ProfileInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, author)
}
