// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/constants"
)

// maxOptimisticRetries bounds WATCH conflicts before giving up.
const maxOptimisticRetries = 5

// RedisStore implements [Store] on Redis, one JSON value per identifier.
//
// Mutations use WATCH/MULTI so that concurrent processes racing on the same
// identifier serialize: a writer whose watched key changed retries on fresh state.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore creates a Redis-backed challenge store.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

/*
Mutate implements [Store].

Description: The key TTL is the challenge expiry plus retention, so an expired
challenge is still readable (and reported as expired rather than missing) for
a while after its code stops working.

Parameters:
  - ctx: context.Context
  - identifier: string (normalised email)
  - fn: MutateFunc

Returns:
  - error: the error returned by fn, storage failures, or SERVICE_UNAVAILABLE
    after repeated optimistic conflicts
*/
func (repository *RedisStore) Mutate(ctx context.Context, identifier string, fn MutateFunc) error {
	key := constants.RedisPrefixChallenge + identifier

	for range maxOptimisticRetries {
		var fnErr error

		err := repository.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := repository.load(ctx, tx, key)
			if err != nil {
				return err
			}

			next, err := fn(current)
			fnErr = err
			if next == nil {
				return nil
			}

			payload, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("redis_challenge_marshal_failed: %w", err)
			}

			ttl := time.Until(retainUntil(next, repository.retention))
			if ttl < time.Second {
				ttl = time.Second
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, ttl)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis_challenge_mutate_failed: %w", err)
		}
		return fnErr
	}

	return apperr.ServiceUnavailable("Verification service is busy, please retry")
}

func (repository *RedisStore) load(ctx context.Context, tx *redis.Tx, key string) (*Challenge, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis_challenge_get_failed: %w", err)
	}

	challenge := &Challenge{}
	if err := json.Unmarshal(raw, challenge); err != nil {
		return nil, fmt.Errorf("redis_challenge_unmarshal_failed: %w", err)
	}
	return challenge, nil
}
