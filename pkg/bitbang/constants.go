// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

// Package bitbang provides a host-side driver for the Bus Pirate binary
// bitbang mode.
//
// The binary bitbang protocol is a single-byte command protocol: the host
// writes an opcode (optionally followed by a fixed-length parameter payload)
// and the device answers with a fixed-length response whose size is implied
// by the opcode. This package implements session setup, ADC sampling
// (one-shot and continuous), PWM configuration, pin control and the device
// self-test on top of a pluggable Transport.
package bitbang

// Command opcodes
const (
	CmdResetBitbang  = 0x00 // also used as drain probe while streaming
	CmdResetTerminal = 0x0F
	CmdSelfTestShort = 0x10
	CmdSelfTestFull  = 0x11
	CmdSetupPWM      = 0x12
	CmdClearPWM      = 0x13
	CmdProbeADC      = 0x14
	CmdADCContinuous = 0x15
	CmdSelfTestExit  = 0xFF
)

// Opcode bases for masked pin commands
const (
	CmdPinDirectionBase = 0x40 // 010xxxxx, low 5 bits select pins
	CmdPinStateBase     = 0x80 // 1xxxxxxx, low 7 bits select pins
)

// AckByte is the single-byte acknowledgment for configuration commands.
const AckByte = 0x01

// BitbangBanner is the version banner sent after entering binary bitbang
// mode. The trailing digit is the binary protocol version.
const BitbangBanner = "BBIO1"

// Pin bits for CmdPinStateBase commands
const (
	PinPower  = 0x40
	PinPullup = 0x20
	PinAux    = 0x10
	PinMosi   = 0x08
	PinClk    = 0x04
	PinMiso   = 0x02
	PinCS     = 0x01
)

// Pin direction bits for CmdPinDirectionBase commands (1 = input)
const (
	DirAux  = 0x10
	DirMosi = 0x08
	DirClk  = 0x04
	DirMiso = 0x02
	DirCS   = 0x01
)

// ADC reference scaling: samples are 10-bit readings of a divided input,
// scaled against a 6.6 V full-scale reference.
const (
	adcReference = 6.6
	adcRange     = 1024
)

// resyncThreshold marks a streamed voltage as a desynchronized frame.
// Genuine continuous samples carry a marker in the top byte that pushes the
// decoded value above this; anything lower means the stream is misaligned.
const resyncThreshold = 10.0

// PWM timer constants for the PIC24F output compare module
const (
	oscillatorHz = 24000000
	maxPeriod    = 1<<16 - 1
)

// prescalers lists the hardware prescaler divisors in register-index order.
var prescalers = [4]int{1, 8, 64, 256}

// Mode identifies the probe operating mode as tracked by a Session.
type Mode int

// Session modes
const (
	ModeUnknown Mode = iota
	ModeTerminal
	ModeBitbang
	ModeADCStream
)
