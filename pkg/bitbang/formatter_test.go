// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import (
	"strings"
	"testing"
)

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		opcode   byte
		expected string
	}{
		{CmdResetBitbang, "RESET_BITBANG"},
		{CmdResetTerminal, "RESET_TERMINAL"},
		{CmdSelfTestShort, "SELFTEST_SHORT"},
		{CmdSelfTestFull, "SELFTEST_FULL"},
		{CmdSetupPWM, "SETUP_PWM"},
		{CmdClearPWM, "CLEAR_PWM"},
		{CmdProbeADC, "PROBE_ADC"},
		{CmdADCContinuous, "ADC_CONTINUOUS"},
		{CmdSelfTestExit, "SELFTEST_EXIT"},
		{0x81, "SET_PIN_STATE"},
		{0x55, "SET_PIN_DIRECTION"},
		{0x20, "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatCommand(tt.opcode)
			if result != tt.expected {
				t.Errorf("FormatCommand(0x%02X) = %s, expected %s", tt.opcode, result, tt.expected)
			}
		})
	}
}

func TestFormatMode(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeUnknown, "unknown"},
		{ModeTerminal, "terminal"},
		{ModeBitbang, "bitbang"},
		{ModeADCStream, "adc-streaming"},
	}

	for _, tt := range tests {
		if got := FormatMode(tt.mode); got != tt.expected {
			t.Errorf("FormatMode(%d) = %s, expected %s", tt.mode, got, tt.expected)
		}
	}
}

func TestFormatVoltage(t *testing.T) {
	if got := FormatVoltage(3.3); got != "3.300 V" {
		t.Errorf("FormatVoltage(3.3) = %q", got)
	}
}

func TestFormatPinState(t *testing.T) {
	got := FormatPinState(PinPower | PinAux)
	if !strings.Contains(got, "POWER") || !strings.Contains(got, "AUX") {
		t.Errorf("FormatPinState should name asserted pins, got %q", got)
	}

	if got := FormatPinState(0); !strings.Contains(got, "none") {
		t.Errorf("FormatPinState(0) = %q, want none marker", got)
	}
}
