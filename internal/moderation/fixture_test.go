// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/moderation"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/blob"
	"github.com/taibuivan/plume/internal/platform/events"
	"github.com/taibuivan/plume/internal/platform/metrics"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/internal/verification/submission"
	"github.com/taibuivan/plume/pkg/clock"
	"github.com/taibuivan/plume/pkg/uuid"
)

type fixture struct {
	memory  *storage.Memory
	clock   *clock.Manual
	events  *events.Recorder
	blobs   *blob.MemoryStore
	metrics *metrics.Metrics
	engine  *moderation.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		memory:  storage.NewMemory(),
		clock:   clock.NewManual(time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)),
		events:  &events.Recorder{},
		blobs:   blob.NewMemoryStore(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.engine = moderation.NewEngine(moderation.Dependencies{
		Tx:      f.memory,
		Blobs:   f.blobs,
		Events:  f.events,
		Clock:   f.clock,
		Metrics: f.metrics,
		Logger:  slog.Default(),
	})
	return f
}

func (f *fixture) seedAuthor(t *testing.T) string {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.memory.Authors.Create(context.Background(), &author.Author{
		ID: id, Email: id + "@example.com", Pseudo: "p-" + id, Status: author.StatusActive,
	}))
	return id
}

func kycFields() submission.KYCFields {
	return submission.KYCFields{
		CINNumber: "123456789012",
		DocFront:  "s3://plume-kyc/front.jpg",
		DocBack:   "s3://plume-kyc/back.jpg",
		Selfie:    "s3://plume-kyc/selfie.jpg",
	}
}

func (f *fixture) approvedKYC(t *testing.T, authorID string) {
	t.Helper()
	ctx := context.Background()

	created, err := f.engine.SubmitKYC(ctx, authorID, kycFields())
	require.NoError(t, err)
	_, err = f.engine.ReviewSubmission(ctx, moderation.ReviewInput{
		SubmissionID: created.ID, AdminID: "admin-1", Decision: moderation.DecisionApprove,
	})
	require.NoError(t, err)
}

// inbox returns every notification of a recipient, newest first.
func (f *fixture) inbox(t *testing.T, recipient notification.Recipient) []*notification.Notification {
	t.Helper()
	items, _, err := f.memory.Notifications.List(context.Background(), recipient, false, 100, 0)
	require.NoError(t, err)
	return items
}

func countType(items []*notification.Notification, notificationType notification.Type) int {
	count := 0
	for _, item := range items {
		if item.Type == notificationType {
			count++
		}
	}
	return count
}

func eventTypes(recorder *events.Recorder) []string {
	types := make([]string, 0)
	for _, event := range recorder.Events() {
		types = append(types, event.Type)
	}
	return types
}
