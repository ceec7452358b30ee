// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import "time"

// Config holds session tuning values. All waits in the protocol are
// multiples of MinDelay, so tests can shrink it to run against a fake
// transport without real delays.
type Config struct {
	// MinDelay is the baseline device settling time. Command waits are
	// expressed as multiples of it.
	MinDelay time.Duration

	// EnterAttempts bounds the 0x00 handshake loop when entering binary
	// bitbang mode from the user terminal.
	EnterAttempts int

	// StreamResyncLimit bounds the continuous-ADC resync loop within a
	// single NextVoltage call.
	StreamResyncLimit int

	// SetupRetries bounds re-sends of an unacknowledged PWM configuration.
	SetupRetries int
}

func defaultConfig() Config {
	return Config{
		MinDelay:          100 * time.Millisecond,
		EnterAttempts:     20,
		StreamResyncLimit: 512,
		SetupRetries:      5,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithMinDelay overrides the baseline settling delay.
func WithMinDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MinDelay = d
		}
	}
}

// WithEnterAttempts overrides the handshake attempt bound.
func WithEnterAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.EnterAttempts = n
		}
	}
}

// WithStreamResyncLimit overrides the continuous-ADC resync bound.
func WithStreamResyncLimit(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.StreamResyncLimit = n
		}
	}
}

// WithSetupRetries overrides the PWM configuration retry bound.
func WithSetupRetries(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SetupRetries = n
		}
	}
}
