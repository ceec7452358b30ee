// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import (
	"encoding/binary"
	"errors"
)

// RawToVoltage converts a raw big-endian ADC sample to volts.
func RawToVoltage(raw uint16) float64 {
	return float64(raw) * adcReference / adcRange
}

// VoltageToRaw is the inverse of RawToVoltage, truncated to the register
// grid. Mostly useful for building test vectors and synthetic streams.
func VoltageToRaw(v float64) uint16 {
	return uint16(v * adcRange / adcReference)
}

// ReadSample performs a one-shot ADC measurement: opcode 0x14, two
// response bytes, big-endian raw sample scaled to volts.
func (s *Session) ReadSample() (uint16, float64, error) {
	if err := s.checkMode("read adc", ModeBitbang); err != nil {
		return 0, 0, err
	}
	if err := s.writeByte(CmdProbeADC); err != nil {
		return 0, 0, err
	}
	if err := s.t.SetTimeout(s.cfg.MinDelay); err != nil {
		return 0, 0, err
	}

	buf, err := s.readExact(2)
	if err != nil {
		return 0, 0, err
	}

	raw := binary.BigEndian.Uint16(buf)
	return raw, RawToVoltage(raw), nil
}

// ReadVoltage returns a one-shot measurement in volts. See ReadSample.
func (s *Session) ReadVoltage() (float64, error) {
	_, v, err := s.ReadSample()
	return v, err
}

// StartStream switches the probe into continuous ADC mode. The device
// starts pushing two-byte samples immediately; no acknowledgment is read.
// Use NextVoltage to consume samples and StopStream to leave the mode.
func (s *Session) StartStream() error {
	if err := s.checkMode("start adc stream", ModeBitbang); err != nil {
		return err
	}
	if err := s.writeByte(CmdADCContinuous); err != nil {
		return err
	}

	s.mode = ModeADCStream
	return nil
}

// NextSample returns the next raw sample and decoded voltage from the
// continuous stream.
//
// Alignment heuristic: a decoded voltage below 10 V means the expected
// top-byte marker is missing and the stream is misaligned, so the loop
// stops and hands back the (likely garbage) value as-is. Higher values
// consume one framing padding byte, flush buffered input and try again,
// bounded by StreamResyncLimit. This is a best-effort resync, not full
// error recovery.
func (s *Session) NextSample() (uint16, float64, error) {
	if err := s.checkMode("next adc sample", ModeADCStream); err != nil {
		return 0, 0, err
	}

	var (
		raw     uint16
		voltage float64
	)
	err := withAttempts(s.cfg.StreamResyncLimit, func() (bool, error) {
		if err := s.t.SetTimeout(s.cfg.MinDelay); err != nil {
			return false, err
		}
		buf, err := s.readExact(2)
		if err != nil {
			return false, err
		}

		raw = binary.BigEndian.Uint16(buf)
		voltage = RawToVoltage(raw)
		if voltage < resyncThreshold {
			return true, nil
		}

		// Framing padding byte, then drop anything else buffered.
		if _, err := s.readExact(1); err != nil {
			return false, err
		}
		if err := s.t.FlushInput(); err != nil {
			return false, err
		}
		return false, nil
	})
	if errors.Is(err, ErrAttemptsExceeded) {
		return raw, voltage, ErrResyncLimit
	}
	if err != nil {
		return 0, 0, err
	}
	return raw, voltage, nil
}

// NextVoltage returns the next streamed voltage. See NextSample.
func (s *Session) NextVoltage() (float64, error) {
	_, v, err := s.NextSample()
	return v, err
}

// StopStream drains the continuous ADC stream and re-enters binary bitbang
// mode. The device has no clean stop command, so this probes with 0x00 up
// to five times until any response byte arrives, flushing around the
// probes. Known limitation: this is a best-effort drain; a device that
// never pauses its stream can still come back misaligned.
func (s *Session) StopStream() error {
	if err := s.checkMode("stop adc stream", ModeADCStream); err != nil {
		return err
	}
	if err := s.t.FlushInput(); err != nil {
		return err
	}

	for i := 0; i < 5; i++ {
		if err := s.writeByte(CmdResetBitbang); err != nil {
			return err
		}
		if err := s.t.SetTimeout(s.cfg.MinDelay); err != nil {
			return err
		}
		buf, err := s.t.Read(1)
		if err != nil {
			return err
		}
		if len(buf) > 0 {
			break
		}
	}

	if err := s.t.FlushInput(); err != nil {
		return err
	}
	return s.EnterBitbang()
}
