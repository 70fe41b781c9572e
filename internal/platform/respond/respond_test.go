// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/respond"
)

/*
TestError_Mapping checks status codes, codes and the Retry-After header.
*/
func TestError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{"already_reviewed", apperr.AlreadyReviewed("Submission"), http.StatusConflict, apperr.CodeAlreadyReviewed, ""},
		{"reason_required", apperr.ReasonRequired(), http.StatusUnprocessableEntity, apperr.CodeReasonRequired, ""},
		{"rate_limited", apperr.RateLimited(42), http.StatusTooManyRequests, apperr.CodeRateLimited, "42"},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError, apperr.CodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/", nil)

			respond.Error(recorder, request, tt.err)

			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.retryAfter, recorder.Header().Get("Retry-After"))

			var envelope respond.ErrorEnvelope
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&envelope))
			assert.Equal(t, tt.code, envelope.Code)
		})
	}
}
