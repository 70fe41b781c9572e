// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/moderation"
	"github.com/taibuivan/plume/internal/platform/ctxutil"
	"github.com/taibuivan/plume/internal/platform/sec"
)

type client struct {
	t      *testing.T
	router http.Handler
}

func newClient(t *testing.T, f *fixture) client {
	handler := moderation.NewHandler(f.engine)
	router := chi.NewRouter()
	router.Mount("/kyc", handler.KYCRoutes())
	router.Mount("/payment-methods", handler.PaymentRoutes())
	router.Mount("/content", handler.ContentRoutes())
	return client{t: t, router: router}
}

func (c client) do(method, path, body string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
	c.t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	}
	recorder := httptest.NewRecorder()
	c.router.ServeHTTP(recorder, request)
	return recorder
}

// dataID extracts data.id or data.content_id from an envelope.
func dataID(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Data struct {
			ID        string `json:"id"`
			ContentID string `json:"content_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	if envelope.Data.ID != "" {
		return envelope.Data.ID
	}
	return envelope.Data.ContentID
}

/*
TestHandler_Verification drives the KYC endpoints through submit, review and the gates.
*/
func TestHandler_Verification(t *testing.T) {
	f := newFixture(t)
	c := newClient(t, f)

	authorID := f.seedAuthor(t)
	author := &sec.AuthClaims{UserID: authorID, Role: string(sec.RoleAuthor)}
	admin := &sec.AuthClaims{UserID: f.seedAuthor(t), Role: string(sec.RoleAdmin)}

	body := `{"cin_number":"123456789012","doc_front":"s3://b/f.jpg","doc_back":"s3://b/b.jpg","selfie":"s3://b/s.jpg"}`

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/kyc/submit", body, nil).Code)

	created := c.do(http.MethodPost, "/kyc/submit", body, author)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	id := dataID(t, created)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/kyc/submit", body, author).Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/kyc/submit", `{"cin_number":"x"}`, author).Code)

	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/kyc", "", author).Code)
	queue := c.do(http.MethodGet, "/kyc?status=pending", "", admin)
	require.Equal(t, http.StatusOK, queue.Code)
	assert.Contains(t, queue.Body.String(), id)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/kyc?status=bogus", "", admin).Code)

	// A KYC id is not reachable through the payment routes.
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/payment-methods/"+id, "", admin).Code)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPut, "/kyc/"+id+"/review", `{"decision":"maybe"}`, admin).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, c.do(http.MethodPut, "/kyc/"+id+"/review", `{"decision":"reject"}`, admin).Code)

	approved := c.do(http.MethodPut, "/kyc/"+id+"/review", `{"decision":"approve"}`, admin)
	require.Equal(t, http.StatusOK, approved.Code, approved.Body.String())
	assert.Contains(t, approved.Body.String(), `"status":"approved"`)

	again := c.do(http.MethodPut, "/kyc/"+id+"/review", `{"decision":"reject","reason":"late"}`, admin)
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.Contains(t, again.Body.String(), "ALREADY_REVIEWED")

	gate := c.do(http.MethodGet, "/kyc/can-publish", "", author)
	require.Equal(t, http.StatusOK, gate.Code)
	assert.Contains(t, gate.Body.String(), `"can_publish":true`)

	mine := c.do(http.MethodGet, "/kyc/me", "", author)
	require.Equal(t, http.StatusOK, mine.Code)
	assert.Contains(t, mine.Body.String(), `"current"`)

	assert.Equal(t, http.StatusPreconditionFailed, c.do(http.MethodPost, "/kyc/submit", body, author).Code)

	eligibility := c.do(http.MethodGet, "/payment-methods/eligibility", "", author)
	require.Equal(t, http.StatusOK, eligibility.Code)
	assert.Contains(t, eligibility.Body.String(), `"eligible":false`)
}

/*
TestHandler_Content covers the draft to published path over HTTP and owner scoping.
*/
func TestHandler_Content(t *testing.T) {
	f := newFixture(t)
	c := newClient(t, f)

	authorID := f.seedAuthor(t)
	f.approvedKYC(t, authorID)
	author := &sec.AuthClaims{UserID: authorID, Role: string(sec.RoleAuthor)}
	stranger := &sec.AuthClaims{UserID: f.seedAuthor(t), Role: string(sec.RoleAuthor)}
	admin := &sec.AuthClaims{UserID: f.seedAuthor(t), Role: string(sec.RoleAdmin)}

	created := c.do(http.MethodPost, "/content", `{"kind":"story","title":{"fr":"Le Phare"}}`, author)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	id := dataID(t, created)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/content", `{"kind":"poem","title":{"fr":"x"}}`, author).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/content/"+id, "", stranger).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/content/"+id, "", admin).Code)

	listed := c.do(http.MethodGet, "/content", "", stranger)
	require.Equal(t, http.StatusOK, listed.Code)
	assert.Contains(t, listed.Body.String(), `"total":0`)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/content/"+id+"/submit-review", "", author).Code)
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/content/"+id+"/submit-review", "", author).Code)

	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPut, "/content/"+id+"/review", `{"decision":"approve"}`, author).Code)

	published := c.do(http.MethodPut, "/content/"+id+"/review", `{"decision":"approve","edits":{"title":{"fr":"Le Grand Phare"}}}`, admin)
	require.Equal(t, http.StatusOK, published.Code, published.Body.String())
	assert.Contains(t, published.Body.String(), "Le Grand Phare")
	assert.Contains(t, published.Body.String(), `"status":"published"`)

	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/content/"+id+"/submit-review", "", author).Code)

	archived := c.do(http.MethodPost, "/content/"+id+"/archive", "", author)
	require.Equal(t, http.StatusOK, archived.Code)
	assert.Contains(t, archived.Body.String(), `"status":"archived"`)
}
