// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package keylock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/keylock"
)

/*
TestLocker_SerializesSameKey verifies that critical sections on one key never overlap.
*/
func TestLocker_SerializesSameKey(t *testing.T) {
	locker := keylock.New(time.Second)

	var (
		mutex   sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.Do(context.Background(), keylock.Key("submission", "abc"), func(context.Context) error {
				mutex.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mutex.Unlock()

				time.Sleep(time.Millisecond)

				mutex.Lock()
				active--
				mutex.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

/*
TestLocker_TimesOut verifies that a waiter gives up instead of blocking forever.
*/
func TestLocker_TimesOut(t *testing.T) {
	locker := keylock.New(20 * time.Millisecond)
	key := keylock.Key("content", "c-1")

	release := make(chan struct{})
	acquired := make(chan struct{})

	go func() {
		_ = locker.Do(context.Background(), key, func(context.Context) error {
			close(acquired)
			<-release
			return nil
		})
	}()

	<-acquired
	err := locker.Do(context.Background(), key, func(context.Context) error { return nil })
	close(release)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnavailable))
}

/*
TestLocker_PropagatesError verifies that fn's error is returned unchanged.
*/
func TestLocker_PropagatesError(t *testing.T) {
	locker := keylock.New(0)
	expected := apperr.AlreadyReviewed("Submission")

	err := locker.Do(context.Background(), "k", func(context.Context) error { return expected })

	assert.Same(t, expected, err)
}
