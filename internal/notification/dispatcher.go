// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/plume/internal/platform/metrics"
	"github.com/taibuivan/plume/pkg/clock"
	"github.com/taibuivan/plume/pkg/uuid"
)

// Emission describes one notification to record.
type Emission struct {
	Recipient         Recipient
	Type              Type
	Payload           Payload
	SourceEntityID    string
	TransitionVersion int
}

// Dispatcher turns lifecycle transitions into inbox records.
//
// It holds no store of its own: the caller passes the transaction-scoped store
// so the record commits or rolls back with the transition.
type Dispatcher struct {
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher creates a [Dispatcher].
func NewDispatcher(clk clock.Clock, recorder *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{clock: clk, metrics: recorder, logger: logger}
}

/*
Emit records a notification exactly once per transition.

Description: The idempotency key is built from the recipient, type, source
entity and transition version. Replaying the same emission returns the id of
the record created the first time.

Parameters:
  - ctx: context.Context
  - store: Store (usually transaction-scoped)
  - emission: Emission

Returns:
  - string: Notification id
  - error: Storage failures
*/
func (dispatcher *Dispatcher) Emit(ctx context.Context, store Store, emission Emission) (string, error) {
	record := &Notification{
		ID:                uuid.New(),
		Recipient:         emission.Recipient,
		Type:              emission.Type,
		Message:           Render(emission.Type, emission.Payload),
		Link:              emission.Payload.Link,
		SourceEntityID:    emission.SourceEntityID,
		TransitionVersion: emission.TransitionVersion,
		IdempotencyKey:    IdempotencyKey(emission.Recipient, emission.Type, emission.SourceEntityID, emission.TransitionVersion),
		CreatedAt:         dispatcher.clock.Now(),
	}

	stored, created, err := store.InsertIfAbsent(ctx, record)
	if err != nil {
		return "", fmt.Errorf("notification_emit_failed: %w", err)
	}

	dispatcher.metrics.ObserveNotification(string(emission.Type), created)
	if !created {
		dispatcher.logger.DebugContext(ctx, "notification_deduplicated",
			slog.String("type", string(emission.Type)),
			slog.String("key", record.IdempotencyKey),
		)
	}

	return stored.ID, nil
}
