// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/api"
	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/identity/otp"
	"github.com/taibuivan/plume/internal/moderation"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/config"
	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/internal/platform/mailer"
	"github.com/taibuivan/plume/internal/platform/metrics"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/internal/registration"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/pkg/clock"
)

func newServer(t *testing.T, checks ...api.Check) (http.Handler, *sec.TokenService) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokens := sec.NewTokenServiceFromKeys(key, &key.PublicKey, constants.AuthIssuer)

	logger := slog.Default()
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	grants := sec.NewGrantSigner("secret", constants.AuthIssuer, constants.GrantTTL)
	memory := storage.NewMemory()

	challenges := otp.NewService(otp.Dependencies{
		Store:   otp.NewMemoryStore(clock.System{}, 20*time.Minute),
		Sender:  otp.NewMailSender(mailer.NewLogMailer(logger)),
		Grants:  grants,
		Metrics: recorder,
		Logger:  logger,
	}, otp.Options{})
	authors := author.NewService(memory.Stores().Authors, tokens, grants, author.NewMemoryGrantLedger(clock.System{}), clock.System{}, logger)
	engine := moderation.NewEngine(moderation.Dependencies{Tx: memory, Metrics: recorder, Logger: logger})

	liveness, readiness := api.NewHealthHandlers(logger, checks...)
	server := api.NewServer(ctx, &config.Config{ServerPort: "0", Environment: "development"}, logger, tokens, recorder, api.Handlers{
		Liveness:      liveness,
		Readiness:     readiness,
		Metrics:       metrics.Handler(registry),
		OTP:           otp.NewHandler(challenges),
		Authors:       author.NewHandler(authors),
		Registration:  registration.NewHandler(registration.NewOrchestrator(challenges, grants, engine, logger)),
		Moderation:    moderation.NewHandler(engine),
		Notifications: notification.NewHandler(notification.NewInbox(memory.Stores().Notifications)),
	})
	return server.Handler(), tokens
}

func get(handler http.Handler, path, token string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

/*
TestServer_Routes checks the probes, the metrics endpoint and that every
route group is mounted behind the authentication middleware.
*/
func TestServer_Routes(t *testing.T) {
	handler, tokens := newServer(t, api.Check{Name: "postgres", Ping: func(context.Context) error { return nil }})

	assert.Equal(t, http.StatusOK, get(handler, "/health", "").Code)
	assert.Equal(t, http.StatusOK, get(handler, "/ready", "").Code)

	assert.Equal(t, http.StatusUnauthorized, get(handler, "/api/v1/kyc/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(handler, "/api/v1/notifications", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(handler, "/api/v1/content", "").Code)

	token, err := tokens.GenerateAccessToken("0190a4a8-0000-7000-8000-000000000001", "inkwell", string(sec.RoleAuthor), time.Minute)
	require.NoError(t, err)

	mine := get(handler, "/api/v1/kyc/me", token)
	require.Equal(t, http.StatusOK, mine.Code, mine.Body.String())
	assert.Equal(t, http.StatusForbidden, get(handler, "/api/v1/payment-methods", token).Code)
	assert.Equal(t, http.StatusOK, get(handler, "/api/v1/notifications/unread-count", token).Code)

	scraped := get(handler, "/metrics", "")
	require.Equal(t, http.StatusOK, scraped.Code)
	assert.True(t, strings.Contains(scraped.Body.String(), "plume_"), "metrics are namespaced")
}

/*
TestServer_Readiness reports 503 when one dependency fails.
*/
func TestServer_Readiness(t *testing.T) {
	handler, _ := newServer(t,
		api.Check{Name: "postgres", Ping: func(context.Context) error { return nil }},
		api.Check{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)

	recorder := get(handler, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"degraded"`)
	assert.Contains(t, recorder.Body.String(), "connection refused")
}
