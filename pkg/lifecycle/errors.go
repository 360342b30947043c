// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package lifecycle

import (
	"errors"

	"github.com/oklog/ulid/v2"
)

// Error codes attached to logged lifecycle faults.
const (
	CodeStartupFailure      = "STARTUP_FAILURE"
	CodeNotificationFailure = "NOTIFICATION_FAILURE"
	CodeTeardownFailure     = "TEARDOWN_FAILURE"
)

// StartupFailure is the only fault a hook returns to the host. Error and
// Unwrap expose the setup error unchanged.
type StartupFailure struct {
	Session ulid.ULID
	Err     error
}

func (f *StartupFailure) Error() string {
	if f.Err == nil {
		return "plugin startup failed"
	}
	return f.Err.Error()
}

func (f *StartupFailure) Unwrap() error {
	return f.Err
}

// IsStartupFailure reports whether err came out of a failed Load.
func IsStartupFailure(err error) bool {
	var failure *StartupFailure
	return errors.As(err, &failure)
}
