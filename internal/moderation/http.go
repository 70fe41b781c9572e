// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/plume/internal/content/review"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/middleware"
	requestutil "github.com/taibuivan/plume/internal/platform/request"
	"github.com/taibuivan/plume/internal/platform/respond"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/locale"
	"github.com/taibuivan/plume/pkg/pagination"
)

// Handler exposes the lifecycle endpoints.
type Handler struct {
	engine *Engine
}

// NewHandler constructs a new [Handler].
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// # Routers

// KYCRoutes returns the identity verification routes.
//
// # Endpoints
//   - POST /submit              : Submits a new KYC version (author).
//   - GET  /me                  : Current version and history (author).
//   - GET  /can-publish         : Publishing gate (author).
//   - GET  /                    : Review queue (admin).
//   - GET  /{id}                : One version (admin).
//   - PUT  /{id}/review         : Approve or reject (admin).
func (handler *Handler) KYCRoutes() chi.Router {
	router := handler.submissionRoutes(submission.KindKYC)
	router.With(middleware.RequireAuth).Get("/can-publish", handler.canPublish)
	return router
}

// PaymentRoutes returns the payout method routes. Same contract as [Handler.KYCRoutes],
// plus GET /eligibility for the payout gate.
func (handler *Handler) PaymentRoutes() chi.Router {
	router := handler.submissionRoutes(submission.KindPaymentMethod)
	router.With(middleware.RequireAuth).Get("/eligibility", handler.eligibility)
	return router
}

// ContentRoutes returns the story and chapter routes.
//
// # Endpoints
//   - POST /                    : Creates a draft (author).
//   - GET  /                    : Lists own content, or everything for admins.
//   - GET  /{id}                : One record (owner or admin).
//   - PUT  /{id}                : Edits a draft or rejected item (owner).
//   - POST /{id}/submit-review  : Sends to moderation (owner).
//   - POST /{id}/archive        : Archives published content (owner).
//   - PUT  /{id}/review         : Publishes or rejects (admin).
func (handler *Handler) ContentRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/", handler.createDraft)
	router.Get("/", handler.listContent)
	router.Get("/{id}", handler.getContent)
	router.Put("/{id}", handler.updateDraft)
	router.Post("/{id}/submit-review", handler.submitContent)
	router.Post("/{id}/archive", handler.archiveContent)
	router.With(middleware.RequireRole(sec.RoleAdmin)).Put("/{id}/review", handler.reviewContent)

	return router
}

func (handler *Handler) submissionRoutes(kind submission.Kind) chi.Router {
	router := chi.NewRouter()
	routes := submissionHandler{engine: handler.engine, kind: kind}

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/submit", routes.submit)
		r.Get("/me", routes.mine)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Get("/", routes.list)
		r.Get("/{id}", routes.get)
		r.Put("/{id}/review", routes.review)
	})

	return router
}

// # Request Payloads

type kycRequest struct {
	CINNumber string `json:"cin_number"`
	DocFront  string `json:"doc_front"`
	DocBack   string `json:"doc_back"`
	Selfie    string `json:"selfie"`
}

type paymentRequest struct {
	PayoutPhone string `json:"payout_phone"`
	HolderName  string `json:"holder_name"`
	ProviderRef string `json:"provider_ref"`
}

type reviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason"`
}

type contentReviewRequest struct {
	Decision string        `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string        `json:"reason"`
	Edits    *review.Edits `json:"edits"`
}

type draftRequest struct {
	Kind     string            `json:"kind"`
	ParentID string            `json:"parent_id"`
	Title    locale.Text       `json:"title"`
	Body     locale.Text       `json:"body"`
	Metadata map[string]string `json:"metadata"`
}

func (input draftRequest) toInput() DraftInput {
	return DraftInput{
		Kind:     review.Kind(input.Kind),
		ParentID: input.ParentID,
		Title:    input.Title,
		Body:     input.Body,
		Metadata: input.Metadata,
	}
}

// # Submission Handlers

type submissionHandler struct {
	engine *Engine
	kind   submission.Kind
}

/*
Submit records a new version for the caller.

POST /api/v1/kyc/submit, POST /api/v1/payment-methods/submit

Response:
  - 201: Submission {id, version, status, ...}
  - 400: VALIDATION_ERROR
  - 409: ALREADY_PENDING
  - 412: PRECONDITION_FAILED (already approved)
*/
func (handler submissionHandler) submit(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var created *submission.Submission
	switch handler.kind {
	case submission.KindKYC:
		var input kycRequest
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
		created, err = handler.engine.SubmitKYC(request.Context(), authorID, submission.KYCFields(input))
	default:
		var input paymentRequest
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, err)
			return
		}
		created, err = handler.engine.SubmitPayment(request.Context(), authorID, submission.PaymentFields(input))
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

// mine returns the caller's current version and full history.
func (handler submissionHandler) mine(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	history, err := handler.engine.SubmissionHistory(request.Context(), authorID, handler.kind)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var current *submission.Submission
	if len(history) > 0 {
		current = history[0]
	}

	respond.OK(writer, map[string]any{"current": current, "history": history})
}

/*
List returns the admin review queue.

GET /api/v1/kyc?status=pending&author_id=...&current=true&page=1&limit=20

Response:
  - 200: {items, total, totalPages, page, limit}
*/
func (handler submissionHandler) list(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	filter := submission.Filter{
		Kind:        handler.kind,
		Status:      submission.Status(query.Get("status")),
		AuthorID:    query.Get("author_id"),
		CurrentOnly: query.Get("current") == "true",
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		respond.Error(writer, request, validate.RequiredError("status", "Unknown filter value"))
		return
	}

	page, err := handler.engine.ListSubmissions(request.Context(), filter, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Page(writer, page)
}

// get handles GET /{id}.
func (handler submissionHandler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.engine.Submission(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if found.Kind != handler.kind {
		respond.Error(writer, request, apperr.NotFound(handler.kind.Label()))
		return
	}

	respond.OK(writer, found)
}

/*
Review approves or rejects a pending version.

PUT /api/v1/kyc/{id}/review

Response:
  - 200: Submission
  - 409: ALREADY_REVIEWED
  - 422: REASON_REQUIRED
*/
func (handler submissionHandler) review(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input reviewRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	target, err := handler.engine.Submission(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if target.Kind != handler.kind {
		respond.Error(writer, request, apperr.NotFound(handler.kind.Label()))
		return
	}

	reviewed, err := handler.engine.ReviewSubmission(request.Context(), ReviewInput{
		SubmissionID: id,
		AdminID:      claims.UserID,
		Decision:     Decision(input.Decision),
		Reason:       input.Reason,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, reviewed)
}

// # Gates

// canPublish handles GET /api/v1/kyc/can-publish.
func (handler *Handler) canPublish(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	allowed, err := handler.engine.CanPublish(request.Context(), authorID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{"can_publish": allowed})
}

// eligibility handles GET /api/v1/payment-methods/eligibility.
func (handler *Handler) eligibility(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.engine.PayoutEligibility(request.Context(), authorID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// # Content Handlers

// createDraft handles POST /api/v1/content.
func (handler *Handler) createDraft(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input draftRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.engine.CreateDraft(request.Context(), authorID, input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, record)
}

// updateDraft handles PUT /api/v1/content/{id}.
func (handler *Handler) updateDraft(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input draftRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.engine.UpdateDraft(request.Context(), id, authorID, input.toInput())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
ListContent returns content records.

GET /api/v1/content?status=pending&kind=story&parent_id=...

Authors only ever see their own items; admins may filter by author_id.
*/
func (handler *Handler) listContent(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	filter := review.Filter{
		Kind:     review.Kind(query.Get("kind")),
		Status:   review.Status(query.Get("status")),
		ParentID: query.Get("parent_id"),
		AuthorID: query.Get("author_id"),
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		respond.Error(writer, request, validate.RequiredError("kind", "Unknown filter value"))
		return
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		respond.Error(writer, request, validate.RequiredError("status", "Unknown filter value"))
		return
	}
	if !claims.IsAdmin() {
		filter.AuthorID = claims.UserID
	}

	page, err := handler.engine.ListContent(request.Context(), filter, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Page(writer, page)
}

// getContent handles GET /api/v1/content/{id}.
func (handler *Handler) getContent(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.engine.Content(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if record.AuthorID != claims.UserID && !claims.IsAdmin() {
		respond.Error(writer, request, apperr.NotFound("Content"))
		return
	}

	respond.OK(writer, record)
}

/*
SubmitContent sends a draft or rejected item to moderation.

POST /api/v1/content/{id}/submit-review

Response:
  - 200: Record
  - 409: ALREADY_PENDING | NOT_DRAFT_OR_REJECTED
  - 412: PRECONDITION_FAILED
*/
func (handler *Handler) submitContent(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.engine.SubmitContentForReview(request.Context(), id, authorID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

// archiveContent handles POST /api/v1/content/{id}/archive.
func (handler *Handler) archiveContent(writer http.ResponseWriter, request *http.Request) {
	authorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.engine.ArchiveContent(request.Context(), id, authorID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}

/*
ReviewContent publishes or rejects pending content.

PUT /api/v1/content/{id}/review

Response:
  - 200: Record
  - 409: ALREADY_REVIEWED
  - 422: REASON_REQUIRED
*/
func (handler *Handler) reviewContent(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input contentReviewRequest
	if err := requestutil.DecodeAndValidate(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	record, err := handler.engine.ReviewContent(request.Context(), ContentReviewInput{
		ContentID: id,
		AdminID:   claims.UserID,
		Decision:  Decision(input.Decision),
		Reason:    input.Reason,
		Edits:     input.Edits,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, record)
}
