// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

// SelfTest runs the device self-test and returns the reported error count
// (0 means the test passed). The full test requires jumpers between +5V
// and Vpu and between +3.3V and ADC; the short test skips the six checks
// that need them.
//
// The test is exited with 0xFF, which the device must acknowledge with
// 0x01 before it is back in binary bitbang mode. The acknowledgment is
// compared as a raw byte value.
func (s *Session) SelfTest(complete bool) (int, error) {
	if err := s.checkMode("self-test", ModeBitbang); err != nil {
		return 0, err
	}

	opcode := byte(CmdSelfTestShort)
	if complete {
		opcode = CmdSelfTestFull
	}
	if err := s.writeByte(opcode); err != nil {
		return 0, err
	}

	// The full test takes several seconds to walk the pin matrix.
	if err := s.t.SetTimeout(50 * s.cfg.MinDelay); err != nil {
		return 0, err
	}
	count, err := s.readExact(1)
	if err != nil {
		return 0, err
	}

	if err := s.writeByte(CmdSelfTestExit); err != nil {
		return 0, err
	}
	if err := s.t.SetTimeout(s.cfg.MinDelay); err != nil {
		return 0, err
	}
	ack, err := s.readExact(1)
	if err != nil {
		return 0, err
	}
	if ack[0] != AckByte {
		return 0, &ProtocolError{Op: "self-test", Got: ack[0], Want: AckByte}
	}

	return int(count[0]), nil
}
