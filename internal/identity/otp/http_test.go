// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/identity/otp"
)

/*
TestHandler_IssueVerify exercises the HTTP contract: 202, 429 with Retry-After, 200, 400.
*/
func TestHandler_IssueVerify(t *testing.T) {
	f := newFixture(t)
	router := otp.NewHandler(f.service).Routes()

	post := func(path, body string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	issueBody := `{"identifier":"ayoub@example.com","purpose":"registration"}`

	recorder := post("/issue", issueBody)
	require.Equal(t, http.StatusAccepted, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), f.sender.last(email))

	f.clock.Advance(5 * time.Second)
	recorder = post("/issue", issueBody)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "55", recorder.Header().Get("Retry-After"))

	recorder = post("/verify", `{"identifier":"ayoub@example.com","code":"`+f.sender.last(email)+`"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data otp.Verification `json:"data"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
	assert.NotEmpty(t, envelope.Data.Grant)

	recorder = post("/verify", `{"identifier":"ayoub@example.com","code":"`+f.sender.last(email)+`"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "ALREADY_CONSUMED")

	recorder = post("/verify", `{"identifier":"ayoub@example.com","code":"12"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
}
