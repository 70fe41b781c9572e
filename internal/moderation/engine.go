// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package moderation is the single authority over verification and content
lifecycle transitions.

Every mutation follows the same shape:

 1. validate input and resolve inline documents (no lock, no transaction);
 2. take the entity's key lock;
 3. inside one store transaction, re-read the entity, check the transition,
    write it with a compare-and-swap and record the notification;
 4. after commit, publish the lifecycle event and update metrics.

A notification can therefore never exist without its transition, and a lost
race surfaces as ALREADY_REVIEWED or ALREADY_PENDING instead of a silent
overwrite.
*/
package moderation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/blob"
	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/internal/platform/events"
	"github.com/taibuivan/plume/internal/platform/keylock"
	"github.com/taibuivan/plume/internal/platform/metrics"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/pkg/clock"
)

// Decision is a reviewer's verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// IsValid reports whether d is a known decision.
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Engine implements the lifecycle state machines.
type Engine struct {
	tx         storage.Transactor
	locker     *keylock.Locker
	dispatcher *notification.Dispatcher
	blobs      blob.Store
	events     events.Publisher
	clock      clock.Clock
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Dependencies groups the collaborators of [Engine].
type Dependencies struct {
	Tx         storage.Transactor
	Locker     *keylock.Locker
	Dispatcher *notification.Dispatcher
	Blobs      blob.Store
	Events     events.Publisher
	Clock      clock.Clock
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// NewEngine constructs an [Engine]. Optional collaborators get in-process defaults.
func NewEngine(deps Dependencies) *Engine {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Locker == nil {
		deps.Locker = keylock.New(0)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Blobs == nil {
		deps.Blobs = blob.NewMemoryStore()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = notification.NewDispatcher(deps.Clock, deps.Metrics, deps.Logger)
	}
	return &Engine{
		tx:         deps.Tx,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		blobs:      deps.Blobs,
		events:     deps.Events,
		clock:      deps.Clock,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// # Post-commit

// committed publishes the event of a transition that is already durable.
// Failures are logged and never reach the caller.
func (engine *Engine) committed(ctx context.Context, event events.Event) {
	engine.metrics.ObserveTransition(entityOf(event.Type), event.Status)

	// The transition is committed; a client disconnect must not drop the event.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.EventPublishTimeout)
	defer cancel()

	if err := engine.events.Publish(publishCtx, event); err != nil {
		engine.logger.WarnContext(ctx, "lifecycle_event_publish_failed",
			slog.String("type", event.Type),
			slog.String("entity_id", event.EntityID),
			slog.Any("error", err),
		)
	}
}

// entityOf extracts the entity label from an event type such as "kyc.reviewed".
func entityOf(eventType string) string {
	entity, _, _ := strings.Cut(eventType, ".")
	return entity
}
