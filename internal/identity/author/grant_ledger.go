// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package author

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/pkg/clock"
)

// GrantLedger records verification grants that have been spent.
type GrantLedger interface {
	// Consume marks grantID as used until expiresAt. It reports false when the
	// grant was already consumed.
	Consume(ctx context.Context, grantID string, expiresAt time.Time) (bool, error)
}

// # Redis Ledger

// RedisGrantLedger implements [GrantLedger] with SET NX keys that expire with the grant.
type RedisGrantLedger struct {
	client *redis.Client
	clock  clock.Clock
}

// NewRedisGrantLedger creates a Redis-backed ledger.
func NewRedisGrantLedger(client *redis.Client, clk clock.Clock) *RedisGrantLedger {
	return &RedisGrantLedger{client: client, clock: clk}
}

// Consume implements [GrantLedger].
func (ledger *RedisGrantLedger) Consume(ctx context.Context, grantID string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(ledger.clock.Now())
	if ttl < time.Second {
		ttl = time.Second
	}

	fresh, err := ledger.client.SetNX(ctx, constants.RedisPrefixGrantConsumed+grantID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis_grant_consume_failed: %w", err)
	}
	return fresh, nil
}

// # Memory Ledger

// MemoryGrantLedger implements [GrantLedger] in process memory.
type MemoryGrantLedger struct {
	mu       sync.Mutex
	consumed map[string]time.Time
	clock    clock.Clock
}

// NewMemoryGrantLedger creates an empty ledger.
func NewMemoryGrantLedger(clk clock.Clock) *MemoryGrantLedger {
	return &MemoryGrantLedger{consumed: make(map[string]time.Time), clock: clk}
}

// Consume implements [GrantLedger]. Expired entries are pruned on each call.
func (ledger *MemoryGrantLedger) Consume(_ context.Context, grantID string, expiresAt time.Time) (bool, error) {
	ledger.mu.Lock()
	defer ledger.mu.Unlock()

	now := ledger.clock.Now()
	for id, until := range ledger.consumed {
		if !now.Before(until) {
			delete(ledger.consumed, id)
		}
	}

	if _, used := ledger.consumed[grantID]; used {
		return false, nil
	}
	ledger.consumed[grantID] = expiresAt
	return true, nil
}
