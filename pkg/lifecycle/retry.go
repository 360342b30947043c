// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package lifecycle

import (
	"context"

	"github.com/sethvargo/go-retry"
)

// LoadWithRetry calls hooks.Load until it succeeds or b stops. Each attempt
// after a StartupFailure starts a fresh session. Errors that are not startup
// failures, and the last failure once b gives up, are returned unchanged.
func LoadWithRetry(ctx context.Context, hooks Hooks, b retry.Backoff) error {
	//nolint:wrapcheck // the host expects the plugin's own startup error
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := hooks.Load(ctx)
		if err != nil && IsStartupFailure(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
