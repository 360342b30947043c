// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csstats/csstats-extension/pkg/lifecycle"
)

func fastBackoff(retries uint64) retry.Backoff {
	return retry.WithMaxRetries(retries, retry.NewConstant(time.Millisecond))
}

func TestLoadWithRetry_SucceedsAfterFailures(t *testing.T) {
	host := readyHost()
	attempts := 0
	obs := &recordingObserver{}
	sessions := 0
	a := lifecycle.New(host,
		lifecycle.WithObserver(obs),
		lifecycle.WithClock(func() time.Time {
			sessions++
			return time.Now()
		}),
		lifecycle.WithSetup(func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("steam not ready")
			}
			return nil
		}),
	)

	require.NoError(t, lifecycle.LoadWithRetry(context.Background(), a, fastBackoff(5)))

	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, sessions)
	host.AssertNumberOfCalls(t, "Ready", 1)
	assert.Equal(t, lifecycle.PhaseReady, a.Phase())
	assert.Equal(t, []string{"load:failed", "load:failed", "load:ok"}, obs.outcomes)
}

func TestLoadWithRetry_ReturnsLastStartupFailure(t *testing.T) {
	fault := errors.New("disk full")
	a := lifecycle.New(&mockHost{}, lifecycle.WithSetup(failing(fault)))

	err := lifecycle.LoadWithRetry(context.Background(), a, fastBackoff(2))

	require.Error(t, err)
	assert.True(t, lifecycle.IsStartupFailure(err))
	assert.ErrorIs(t, err, fault)
	assert.Equal(t, lifecycle.PhaseFailed, a.Phase())
}

// plainHooks fails Load with an error that is not a startup failure.
type plainHooks struct {
	calls int
	err   error
}

func (p *plainHooks) Load(context.Context) error {
	p.calls++
	return p.err
}
func (p *plainHooks) FrontendReady(context.Context) {}
func (p *plainHooks) Unload(context.Context)        {}

func TestLoadWithRetry_DoesNotRetryOtherErrors(t *testing.T) {
	hooks := &plainHooks{err: errors.New("transport closed")}

	err := lifecycle.LoadWithRetry(context.Background(), hooks, fastBackoff(5))

	require.ErrorIs(t, err, hooks.err)
	assert.Equal(t, 1, hooks.calls)
}

func TestLoadWithRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hooks := &plainHooks{}

	err := lifecycle.LoadWithRetry(ctx, hooks, fastBackoff(5))

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hooks.calls)
}
