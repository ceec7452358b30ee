// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import (
	"bytes"
	"errors"
	"time"

	"testing"
)

// ============================================================
// Fake Transport
// ============================================================

// fakeTransport scripts device responses as a queue of arrivals. Each Read
// consumes from the front arrival; an empty arrival models a read timeout
// (nothing arrived before the deadline). Arrivals behind the front have not
// reached the host buffer yet, so FlushInput only counts the call.
type fakeTransport struct {
	script      [][]byte
	writes      []byte
	flushCount  int
	lastTimeout time.Duration
	closed      bool
}

func (f *fakeTransport) Write(p []byte) error {
	f.writes = append(f.writes, p...)
	return nil
}

func (f *fakeTransport) Read(n int) ([]byte, error) {
	if len(f.script) == 0 {
		return nil, nil
	}

	chunk := f.script[0]
	if n >= len(chunk) {
		f.script = f.script[1:]
		return chunk, nil
	}
	f.script[0] = chunk[n:]
	return chunk[:n], nil
}

func (f *fakeTransport) SetTimeout(d time.Duration) error {
	f.lastTimeout = d
	return nil
}

func (f *fakeTransport) FlushInput() error {
	f.flushCount++
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// newTestSession builds a session over a scripted transport, already in
// the given mode, with a tiny MinDelay so tests run without real waits.
func newTestSession(mode Mode, script ...[]byte) (*Session, *fakeTransport) {
	ft := &fakeTransport{script: script}
	s := New(ft, WithMinDelay(time.Millisecond))
	s.mode = mode
	return s, ft
}

// ============================================================
// Session Tests
// ============================================================

func TestEnter_Handshake(t *testing.T) {
	// First probe times out, second gets the banner.
	s, ft := newTestSession(ModeUnknown,
		[]byte{},
		[]byte(BitbangBanner),
	)

	if err := s.Enter(); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if s.Mode() != ModeBitbang {
		t.Errorf("mode = %s, want bitbang", FormatMode(s.Mode()))
	}
	if !bytes.Equal(ft.writes, []byte{CmdResetBitbang, CmdResetBitbang}) {
		t.Errorf("writes = % 02X, want two 0x00 probes", ft.writes)
	}
}

func TestEnter_NoBanner(t *testing.T) {
	ft := &fakeTransport{script: [][]byte{
		[]byte("ERROR"),
		[]byte("ERROR"),
		[]byte("ERROR"),
	}}
	s := New(ft, WithMinDelay(time.Millisecond), WithEnterAttempts(3))

	err := s.Enter()
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	if s.Mode() != ModeUnknown {
		t.Errorf("mode = %s, want unknown after failed handshake", FormatMode(s.Mode()))
	}
}

func TestEnterBitbang_BadBanner(t *testing.T) {
	s, _ := newTestSession(ModeADCStream, []byte("BBIO2"))

	if err := s.EnterBitbang(); err == nil {
		t.Error("expected error for wrong protocol version banner")
	}
}

func TestReset(t *testing.T) {
	s, ft := newTestSession(ModeBitbang)

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.Mode() != ModeTerminal {
		t.Errorf("mode = %s, want terminal", FormatMode(s.Mode()))
	}
	if !bytes.Equal(ft.writes, []byte{CmdResetTerminal}) {
		t.Errorf("writes = % 02X, want [0x0F]", ft.writes)
	}
}

func TestReset_WrongMode(t *testing.T) {
	s, ft := newTestSession(ModeADCStream)

	err := s.Reset()
	var modeErr *ModeError
	if !errors.As(err, &modeErr) {
		t.Fatalf("expected ModeError, got %v", err)
	}
	if len(ft.writes) != 0 {
		t.Errorf("reset in wrong mode must not touch the wire, wrote % 02X", ft.writes)
	}
}

func TestSetPins(t *testing.T) {
	tests := []struct {
		name      string
		mask      byte
		wantWrite byte
		readback  byte
	}{
		{"power and pullups", PinPower | PinPullup, 0x80 | 0x60, 0x60},
		{"aux high", PinAux, 0x80 | 0x10, 0x10},
		{"all low", 0x00, 0x80, 0x00},
		{"high bit masked off", 0xFF, 0xFF, 0x7F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ft := newTestSession(ModeBitbang, []byte{tt.readback})

			state, err := s.SetPins(tt.mask)
			if err != nil {
				t.Fatalf("SetPins failed: %v", err)
			}
			if state != tt.readback {
				t.Errorf("readback = 0x%02X, want 0x%02X", state, tt.readback)
			}
			if !bytes.Equal(ft.writes, []byte{tt.wantWrite}) {
				t.Errorf("writes = % 02X, want [0x%02X]", ft.writes, tt.wantWrite)
			}
		})
	}
}

func TestSetPinDirections(t *testing.T) {
	s, ft := newTestSession(ModeBitbang, []byte{0x12})

	state, err := s.SetPinDirections(DirAux | DirMiso)
	if err != nil {
		t.Fatalf("SetPinDirections failed: %v", err)
	}
	if state != 0x12 {
		t.Errorf("readback = 0x%02X, want 0x12", state)
	}
	if !bytes.Equal(ft.writes, []byte{CmdPinDirectionBase | DirAux | DirMiso}) {
		t.Errorf("writes = % 02X", ft.writes)
	}
}

func TestSetPins_NoResponse(t *testing.T) {
	s, _ := newTestSession(ModeBitbang)

	_, err := s.SetPins(PinPower)
	if !errors.Is(err, ErrShortRead) {
		t.Errorf("expected ErrShortRead, got %v", err)
	}
}
