// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notification

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/middleware"
	requestutil "github.com/taibuivan/plume/internal/platform/request"
	"github.com/taibuivan/plume/internal/platform/respond"
	"github.com/taibuivan/plume/pkg/pagination"
)

// Handler exposes the notification feed.
type Handler struct {
	inbox *Inbox
}

// NewHandler constructs a new [Handler].
func NewHandler(inbox *Inbox) *Handler {
	return &Handler{inbox: inbox}
}

// Routes returns a [chi.Router] with feed routes. Every route requires authentication.
//
// # Endpoints
//   - GET    /             : Paginated feed (?unread=true, ?inbox=admin).
//   - GET    /unread-count : Badge count.
//   - PATCH  /{id}/read    : Marks one notification read.
//   - DELETE /{id}         : Deletes one notification.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Get("/unread-count", handler.unreadCount)
	router.Patch("/{id}/read", handler.markRead)
	router.Delete("/{id}", handler.delete)

	return router
}

// recipientOf maps the caller to an inbox. Admins reach the shared moderation
// inbox with ?inbox=admin.
func recipientOf(request *http.Request) (Recipient, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return Recipient{}, err
	}

	if request.URL.Query().Get("inbox") == string(RecipientAdmin) {
		if !claims.IsAdmin() {
			return Recipient{}, apperr.Forbidden("The moderation inbox is restricted to administrators")
		}
		return AdminInbox, nil
	}
	return Author(claims.UserID), nil
}

/*
List returns the caller's feed.

GET /api/v1/notifications

Response:
  - 200: {items, total, totalPages, page, limit}
  - 401: UNAUTHORIZED
  - 403: FORBIDDEN (admin inbox)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	recipient, err := recipientOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	unreadOnly := request.URL.Query().Get("unread") == "true"
	page, err := handler.inbox.List(request.Context(), recipient, unreadOnly, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Page(writer, page)
}

// unreadCount handles GET /api/v1/notifications/unread-count.
func (handler *Handler) unreadCount(writer http.ResponseWriter, request *http.Request) {
	recipient, err := recipientOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	count, err := handler.inbox.UnreadCount(request.Context(), recipient)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int{"unread": count})
}

// markRead handles PATCH /api/v1/notifications/{id}/read.
func (handler *Handler) markRead(writer http.ResponseWriter, request *http.Request) {
	recipient, err := recipientOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.inbox.MarkRead(request.Context(), recipient, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// delete handles DELETE /api/v1/notifications/{id}.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	recipient, err := recipientOf(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.ID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.inbox.Delete(request.Context(), recipient, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
