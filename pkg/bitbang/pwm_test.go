// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// ============================================================
// Prescaler Search Tests
// ============================================================

func TestPWMConfigFor(t *testing.T) {
	tests := []struct {
		name          string
		frequency     float64
		dutyCycle     float64
		wantPrescaler uint8
		wantPeriod    uint16
		wantDuty      uint16
	}{
		{
			// 12e6 / 1000 - 1
			name:          "1 kHz takes prescaler 1",
			frequency:     1000,
			dutyCycle:     0.5,
			wantPrescaler: 0,
			wantPeriod:    11999,
			wantDuty:      5999,
		},
		{
			// 12e6 / (50 * 8) - 1
			name:          "50 Hz needs prescaler 8",
			frequency:     50,
			dutyCycle:     0.25,
			wantPrescaler: 1,
			wantPeriod:    29999,
			wantDuty:      7499,
		},
		{
			// 12e6 / (5 * 64) - 1
			name:          "5 Hz needs prescaler 64",
			frequency:     5,
			dutyCycle:     1,
			wantPrescaler: 2,
			wantPeriod:    37499,
			wantDuty:      37499,
		},
		{
			// 12e6 / (1 * 256) - 1
			name:          "1 Hz needs prescaler 256",
			frequency:     1,
			dutyCycle:     0,
			wantPrescaler: 3,
			wantPeriod:    46874,
			wantDuty:      0,
		},
		{
			name:          "high frequency stays on prescaler 1",
			frequency:     100000,
			dutyCycle:     0.5,
			wantPrescaler: 0,
			wantPeriod:    119,
			wantDuty:      59,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := PWMConfigFor(tt.frequency, tt.dutyCycle)
			if err != nil {
				t.Fatalf("PWMConfigFor(%v, %v) failed: %v", tt.frequency, tt.dutyCycle, err)
			}
			if cfg.Prescaler != tt.wantPrescaler {
				t.Errorf("prescaler index = %d, want %d", cfg.Prescaler, tt.wantPrescaler)
			}
			if cfg.Period != tt.wantPeriod {
				t.Errorf("period = %d, want %d", cfg.Period, tt.wantPeriod)
			}
			if cfg.Duty != tt.wantDuty {
				t.Errorf("duty = %d, want %d", cfg.Duty, tt.wantDuty)
			}
		})
	}
}

func TestPWMConfigFor_InvalidArguments(t *testing.T) {
	tests := []struct {
		name      string
		frequency float64
		dutyCycle float64
	}{
		{"duty above one", 1000, 1.1},
		{"duty below zero", 1000, -0.1},
		{"zero frequency", 0, 0.5},
		{"negative frequency", -50, 0.5},
		{"frequency too low for any prescaler", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PWMConfigFor(tt.frequency, tt.dutyCycle)
			var argErr *ArgumentError
			if !errors.As(err, &argErr) {
				t.Errorf("expected ArgumentError, got %v", err)
			}
		})
	}
}

func TestBuildPWMCommand(t *testing.T) {
	cmd := buildPWMCommand(PWMConfig{Prescaler: 0, Duty: 500, Period: 1000})

	want := []byte{0x12, 0x00, 0x01, 0xF4, 0x03, 0xE8}
	if !bytes.Equal(cmd, want) {
		t.Errorf("command = % 02X, want % 02X", cmd, want)
	}
}

// ============================================================
// Device Write Tests
// ============================================================

func TestSetPWMFrequency(t *testing.T) {
	s, ft := newTestSession(ModeBitbang, []byte{AckByte})

	if err := s.SetPWMFrequency(1000, 0.5); err != nil {
		t.Fatalf("SetPWMFrequency failed: %v", err)
	}

	want := buildPWMCommand(PWMConfig{Prescaler: 0, Duty: 5999, Period: 11999})
	if !bytes.Equal(ft.writes, want) {
		t.Errorf("writes = % 02X, want % 02X", ft.writes, want)
	}
	if ft.lastTimeout != 10*time.Millisecond {
		t.Errorf("timeout = %v, want 10x minDelay", ft.lastTimeout)
	}
}

func TestSetPWMFrequency_RetriesSameValues(t *testing.T) {
	// Nack, timeout, then ack: the identical sequence must be re-sent.
	s, ft := newTestSession(ModeBitbang,
		[]byte{0x00},
		[]byte{},
		[]byte{AckByte},
	)

	if err := s.SetPWMFrequency(1000, 0.5); err != nil {
		t.Fatalf("SetPWMFrequency failed: %v", err)
	}

	one := buildPWMCommand(PWMConfig{Prescaler: 0, Duty: 5999, Period: 11999})
	want := append(append(append([]byte{}, one...), one...), one...)
	if !bytes.Equal(ft.writes, want) {
		t.Errorf("writes = % 02X, want three identical sequences", ft.writes)
	}
}

func TestSetPWMFrequency_RetriesExhausted(t *testing.T) {
	ft := &fakeTransport{script: [][]byte{{0x00}, {0x00}}}
	s := New(ft, WithMinDelay(time.Millisecond), WithSetupRetries(2))
	s.mode = ModeBitbang

	err := s.SetPWMFrequency(1000, 0.5)
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("expected SetupError, got %v", err)
	}
}

func TestSetPWMFrequency_InvalidDutyFailsBeforeWrite(t *testing.T) {
	s, ft := newTestSession(ModeBitbang)

	err := s.SetPWMFrequency(1000, 2)
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ArgumentError, got %v", err)
	}
	if len(ft.writes) != 0 {
		t.Errorf("invalid arguments must not reach the wire, wrote % 02X", ft.writes)
	}
}

func TestSetPWMFrequency_WrongMode(t *testing.T) {
	s, _ := newTestSession(ModeADCStream)

	err := s.SetPWMFrequency(1000, 0.5)
	var modeErr *ModeError
	if !errors.As(err, &modeErr) {
		t.Errorf("expected ModeError, got %v", err)
	}
}

// ============================================================
// Disable Tests
// ============================================================

func TestDisablePWM(t *testing.T) {
	s, ft := newTestSession(ModeBitbang, []byte{AckByte})

	if err := s.DisablePWM(); err != nil {
		t.Fatalf("DisablePWM failed: %v", err)
	}
	if !bytes.Equal(ft.writes, []byte{CmdClearPWM}) {
		t.Errorf("writes = % 02X, want [0x13]", ft.writes)
	}
}

func TestDisablePWM_BadAck(t *testing.T) {
	s, ft := newTestSession(ModeBitbang, []byte{0x00})

	err := s.DisablePWM()
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	// Disable is never retried.
	if !bytes.Equal(ft.writes, []byte{CmdClearPWM}) {
		t.Errorf("writes = % 02X, want a single [0x13]", ft.writes)
	}
}
