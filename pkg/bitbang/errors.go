// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import (
	"errors"
	"fmt"
)

// ErrShortRead indicates the transport returned fewer bytes than the
// response length implied by the opcode.
var ErrShortRead = errors.New("short read from device")

// ErrResyncLimit indicates the continuous ADC resync loop gave up before
// the stream realigned.
var ErrResyncLimit = errors.New("adc stream did not resynchronize")

// ProtocolError indicates the device returned an unexpected acknowledgment.
type ProtocolError struct {
	Op   string
	Got  byte
	Want byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected response 0x%02X (want 0x%02X)", e.Op, e.Got, e.Want)
}

// ModeError indicates an operation was invoked while the session was in the
// wrong mode.
type ModeError struct {
	Op   string
	Want Mode
	Got  Mode
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("%s requires %s mode, session is in %s mode", e.Op, FormatMode(e.Want), FormatMode(e.Got))
}

// SetupError indicates the device did not acknowledge a configuration
// command after all retries.
type SetupError struct {
	Op string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("could not %s", e.Op)
}

// ArgumentError indicates a caller-supplied parameter is out of range.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string {
	return e.Reason
}
