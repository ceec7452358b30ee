// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import "errors"

// ErrAttemptsExceeded is returned by withAttempts when the operation never
// reported completion within its attempt budget.
var ErrAttemptsExceeded = errors.New("attempt limit exceeded")

// withAttempts invokes op until it reports done, fails, or the attempt
// budget runs out. Operations that historically retried by self-recursion
// (continuous ADC resync, PWM configuration) run under this bound instead.
func withAttempts(limit int, op func() (done bool, err error)) error {
	for i := 0; i < limit; i++ {
		done, err := op()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrAttemptsExceeded
}
