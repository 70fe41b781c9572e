// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/plume/internal/platform/ctxutil"
	"github.com/taibuivan/plume/internal/platform/middleware"
	"github.com/taibuivan/plume/internal/platform/sec"
)

type stubVerifier struct {
	claims *sec.AuthClaims
}

func (verifier stubVerifier) VerifyToken(token string) (*sec.AuthClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return verifier.claims, nil
}

func serve(handler http.Handler, authorization string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestAuthenticate_RequireRole walks the anonymous, author and admin paths.
*/
func TestAuthenticate_RequireRole(t *testing.T) {
	final := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		writer.Header().Set("X-User", claims.UserID)
		writer.WriteHeader(http.StatusOK)
	})

	build := func(role sec.UserRole) http.Handler {
		verifier := stubVerifier{claims: &sec.AuthClaims{UserID: "u-1", Role: string(role)}}
		return middleware.Authenticate(verifier)(middleware.RequireRole(sec.RoleAdmin)(final))
	}

	tests := []struct {
		name          string
		role          sec.UserRole
		authorization string
		status        int
	}{
		{"anonymous", sec.RoleAdmin, "", http.StatusUnauthorized},
		{"malformed_header", sec.RoleAdmin, "Token good", http.StatusUnauthorized},
		{"invalid_token", sec.RoleAdmin, "Bearer bad", http.StatusUnauthorized},
		{"author_forbidden", sec.RoleAuthor, "Bearer good", http.StatusForbidden},
		{"admin_allowed", sec.RoleAdmin, "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(build(tt.role), tt.authorization)
			assert.Equal(t, tt.status, recorder.Code)
		})
	}
}

/*
TestRealIP checks proxy header precedence.
*/
func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", middleware.RealIP(request))

	request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", middleware.RealIP(request))

	request.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", middleware.RealIP(request))
}
