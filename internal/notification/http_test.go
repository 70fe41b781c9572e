// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notification_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/ctxutil"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/pkg/clock"
)

/*
TestHandler_Feed covers authentication, the admin inbox guard and owner-scoped mutations.
*/
func TestHandler_Feed(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStore()
	dispatcher := notification.NewDispatcher(clock.NewManual(start), nil, slog.Default())
	router := notification.NewHandler(notification.NewInbox(store)).Routes()

	id, err := dispatcher.Emit(ctx, store, notification.Emission{
		Recipient: notification.Author("0190a4a8-0000-7000-8000-000000000001"), Type: notification.TypeWelcome,
		SourceEntityID: "0190a4a8-0000-7000-8000-000000000001",
	})
	require.NoError(t, err)

	serve := func(method, path string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
		request := httptest.NewRequest(method, path, nil)
		if claims != nil {
			request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
		}
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	owner := &sec.AuthClaims{UserID: "0190a4a8-0000-7000-8000-000000000001", Role: string(sec.RoleAuthor)}
	stranger := &sec.AuthClaims{UserID: "0190a4a8-0000-7000-8000-000000000002", Role: string(sec.RoleAuthor)}
	admin := &sec.AuthClaims{UserID: "0190a4a8-0000-7000-8000-000000000003", Role: string(sec.RoleAdmin)}

	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(http.MethodGet, "/?inbox=admin", owner).Code)
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/?inbox=admin", admin).Code)

	recorder := serve(http.MethodGet, "/?unread=true", owner)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), id)
	assert.Contains(t, recorder.Body.String(), `"totalPages":1`)

	assert.Equal(t, http.StatusNotFound, serve(http.MethodPatch, "/"+id+"/read", stranger).Code)
	assert.Equal(t, http.StatusNoContent, serve(http.MethodPatch, "/"+id+"/read", owner).Code)

	recorder = serve(http.MethodGet, "/unread-count", owner)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"unread":0`)

	assert.Equal(t, http.StatusBadRequest, serve(http.MethodDelete, "/not-a-uuid", owner).Code)
	assert.Equal(t, http.StatusNoContent, serve(http.MethodDelete, "/"+id, owner).Code)
}
