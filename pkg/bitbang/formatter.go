// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import (
	"fmt"
	"strings"
)

// FormatCommand returns the human-readable name for an opcode.
func FormatCommand(opcode byte) string {
	switch opcode {
	case CmdResetBitbang:
		return "RESET_BITBANG"
	case CmdResetTerminal:
		return "RESET_TERMINAL"
	case CmdSelfTestShort:
		return "SELFTEST_SHORT"
	case CmdSelfTestFull:
		return "SELFTEST_FULL"
	case CmdSetupPWM:
		return "SETUP_PWM"
	case CmdClearPWM:
		return "CLEAR_PWM"
	case CmdProbeADC:
		return "PROBE_ADC"
	case CmdADCContinuous:
		return "ADC_CONTINUOUS"
	case CmdSelfTestExit:
		return "SELFTEST_EXIT"
	}

	switch {
	case opcode&CmdPinStateBase != 0:
		return "SET_PIN_STATE"
	case opcode&0xE0 == CmdPinDirectionBase:
		return "SET_PIN_DIRECTION"
	default:
		return "UNKNOWN"
	}
}

// FormatMode returns the human-readable name for a session mode.
func FormatMode(m Mode) string {
	switch m {
	case ModeTerminal:
		return "terminal"
	case ModeBitbang:
		return "bitbang"
	case ModeADCStream:
		return "adc-streaming"
	default:
		return "unknown"
	}
}

// FormatVoltage formats a decoded ADC voltage for display.
func FormatVoltage(v float64) string {
	return fmt.Sprintf("%.3f V", v)
}

// FormatPinState renders a pin state byte as the list of asserted pins.
func FormatPinState(state byte) string {
	names := []struct {
		bit  byte
		name string
	}{
		{PinPower, "POWER"},
		{PinPullup, "PULLUP"},
		{PinAux, "AUX"},
		{PinMosi, "MOSI"},
		{PinClk, "CLK"},
		{PinMiso, "MISO"},
		{PinCS, "CS"},
	}

	asserted := []string{}
	for _, n := range names {
		if state&n.bit != 0 {
			asserted = append(asserted, n.name)
		}
	}
	if len(asserted) == 0 {
		return fmt.Sprintf("0x%02X (none)", state)
	}
	return fmt.Sprintf("0x%02X (%s)", state, strings.Join(asserted, " "))
}
