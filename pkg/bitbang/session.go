// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import (
	"fmt"
)

// Session tracks the probe's operating mode and implements the binary
// bitbang command set on top of a Transport.
//
// A Session is not safe for concurrent use: the probe is a single serial
// resource and every operation is a blocking write/read exchange.
type Session struct {
	t    Transport
	cfg  Config
	mode Mode
}

// New creates a Session over the given transport. The session starts in
// ModeUnknown; call Enter to perform the bitbang handshake.
func New(t Transport, opts ...Option) *Session {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		t:    t,
		cfg:  cfg,
		mode: ModeUnknown,
	}
}

// Mode returns the mode the session believes the probe is in.
func (s *Session) Mode() Mode {
	return s.mode
}

// Enter performs the handshake from the user terminal into binary bitbang
// mode: 0x00 is written repeatedly until the device answers with the
// "BBIO1" banner. Up to EnterAttempts zeros are needed to flush any
// half-typed terminal input on the device side.
func (s *Session) Enter() error {
	if err := s.t.SetTimeout(s.cfg.MinDelay); err != nil {
		return err
	}
	if err := s.t.FlushInput(); err != nil {
		return err
	}

	for i := 0; i < s.cfg.EnterAttempts; i++ {
		if err := s.writeByte(CmdResetBitbang); err != nil {
			return err
		}

		buf, err := s.t.Read(len(BitbangBanner))
		if err != nil {
			return err
		}
		if string(buf) == BitbangBanner {
			// Drain whatever the terminal echoed before the banner.
			if err := s.t.FlushInput(); err != nil {
				return err
			}
			s.mode = ModeBitbang
			return nil
		}
		if len(buf) > 0 {
			if err := s.t.FlushInput(); err != nil {
				return err
			}
		}
	}

	return &SetupError{Op: "enter bitbang mode"}
}

// EnterBitbang re-enters binary bitbang mode from a sub-mode with a single
// 0x00, expecting the version banner in response.
func (s *Session) EnterBitbang() error {
	if err := s.writeByte(CmdResetBitbang); err != nil {
		return err
	}
	if err := s.t.SetTimeout(s.cfg.MinDelay); err != nil {
		return err
	}

	buf, err := s.readExact(len(BitbangBanner))
	if err != nil {
		return err
	}
	if string(buf) != BitbangBanner {
		return fmt.Errorf("re-enter bitbang: unexpected banner %q", buf)
	}

	s.mode = ModeBitbang
	return nil
}

// Reset returns the probe to the user terminal. The session mode becomes
// ModeTerminal; a new Enter is required before further bitbang commands.
func (s *Session) Reset() error {
	if err := s.checkMode("reset", ModeBitbang); err != nil {
		return err
	}
	if err := s.writeByte(CmdResetTerminal); err != nil {
		return err
	}

	s.mode = ModeTerminal
	return s.t.FlushInput()
}

// SetPinDirections configures pins as input (bit set) or output (bit
// clear) using the Dir* bits. The device answers with the current pin
// state byte, which is returned.
func (s *Session) SetPinDirections(mask byte) (byte, error) {
	if err := s.checkMode("set pin directions", ModeBitbang); err != nil {
		return 0, err
	}
	if err := s.writeByte(CmdPinDirectionBase | (mask & 0x1F)); err != nil {
		return 0, err
	}
	if err := s.t.SetTimeout(s.cfg.MinDelay); err != nil {
		return 0, err
	}

	buf, err := s.readExact(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// SetPins drives output pins high (bit set) or low (bit clear) using the
// Pin* bits. PinPower and PinPullup switch the supply and pull-up
// peripherals. The device answers with the pin state byte.
func (s *Session) SetPins(mask byte) (byte, error) {
	if err := s.checkMode("set pins", ModeBitbang); err != nil {
		return 0, err
	}
	if err := s.writeByte(CmdPinStateBase | (mask & 0x7F)); err != nil {
		return 0, err
	}
	if err := s.t.SetTimeout(s.cfg.MinDelay); err != nil {
		return 0, err
	}

	buf, err := s.readExact(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// checkMode fails with a ModeError when the session is not in the wanted
// mode. Mode-sensitive operations call this before touching the wire.
func (s *Session) checkMode(op string, want Mode) error {
	if s.mode != want {
		return &ModeError{Op: op, Want: want, Got: s.mode}
	}
	return nil
}

func (s *Session) writeByte(b byte) error {
	return s.t.Write([]byte{b})
}

// readExact reads exactly n bytes or fails with ErrShortRead. Fixed-length
// responses are never self-describing, so a short read means the exchange
// is broken at the transport level.
func (s *Session) readExact(n int) ([]byte, error) {
	buf, err := s.t.Read(n)
	if err != nil {
		return nil, err
	}
	if len(buf) < n {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, len(buf), n)
	}
	return buf, nil
}
