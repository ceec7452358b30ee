// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import "errors"

// PWMConfig is a hardware PWM register triple derived from a requested
// frequency and duty cycle. Prescaler is the register index into the
// [1, 8, 64, 256] divisor table, not the divisor itself.
type PWMConfig struct {
	Prescaler uint8
	Duty      uint16
	Period    uint16
}

// PWMConfigFor derives the register values for the requested output
// frequency (Hz) and duty cycle fraction in [0, 1]. The search walks the
// prescaler table in index order and takes the first divisor whose period
// register fits in 16 bits; frequencies too low for even the largest
// divisor are rejected.
//
// Timer math per the PIC24F output compare module: with instruction cycle
// Tcy = 2/Fosc, period = (1/f)/(Tcy*prescaler) - 1 and duty = period*frac,
// both truncated.
func PWMConfigFor(frequency, dutyCycle float64) (PWMConfig, error) {
	if dutyCycle < 0 || dutyCycle > 1 {
		return PWMConfig{}, &ArgumentError{Reason: "duty cycle must be between 0 and 1"}
	}
	if frequency <= 0 {
		return PWMConfig{}, &ArgumentError{Reason: "frequency must be positive"}
	}

	tcy := 2.0 / oscillatorHz
	pwmPeriod := 1.0 / frequency

	for idx, prescaler := range prescalers {
		period := int(pwmPeriod/(tcy*float64(prescaler)) - 1)
		duty := int(float64(period) * dutyCycle)

		if period < maxPeriod {
			return PWMConfig{
				Prescaler: uint8(idx),
				Duty:      uint16(duty),
				Period:    uint16(period),
			}, nil
		}
	}

	return PWMConfig{}, &ArgumentError{Reason: "frequency requested is invalid"}
}

// PrescalerDivisor returns the timer divisor selected by a prescaler
// register index, or 0 for an index outside the divisor table.
func PrescalerDivisor(index uint8) int {
	if int(index) < len(prescalers) {
		return prescalers[index]
	}
	return 0
}

// buildPWMCommand assembles the 6-byte configuration sequence: opcode,
// prescaler index, then duty and period registers high byte first.
func buildPWMCommand(c PWMConfig) []byte {
	return []byte{
		CmdSetupPWM,
		c.Prescaler,
		byte(c.Duty >> 8),
		byte(c.Duty),
		byte(c.Period >> 8),
		byte(c.Period),
	}
}

// SetPWMFrequency configures and enables PWM output on the AUX pin. The
// register values are derived once; an unacknowledged write is re-sent
// with the same values up to SetupRetries times. The output keeps running
// until DisablePWM is called or the device is reset.
func (s *Session) SetPWMFrequency(frequency, dutyCycle float64) error {
	if err := s.checkMode("set pwm frequency", ModeBitbang); err != nil {
		return err
	}

	config, err := PWMConfigFor(frequency, dutyCycle)
	if err != nil {
		return err
	}

	err = withAttempts(s.cfg.SetupRetries, func() (bool, error) {
		return s.setupPWM(config)
	})
	if errors.Is(err, ErrAttemptsExceeded) {
		return &SetupError{Op: "setup PWM mode"}
	}
	return err
}

// setupPWM transmits one configuration sequence and reports whether the
// device acknowledged it. A missing or wrong acknowledgment is not an
// error here; the caller decides whether to retry.
func (s *Session) setupPWM(c PWMConfig) (bool, error) {
	if err := s.t.Write(buildPWMCommand(c)); err != nil {
		return false, err
	}
	if err := s.t.SetTimeout(10 * s.cfg.MinDelay); err != nil {
		return false, err
	}

	buf, err := s.t.Read(1)
	if err != nil {
		return false, err
	}
	return len(buf) == 1 && buf[0] == AckByte, nil
}

// DisablePWM clears the PWM configuration and releases the AUX pin.
// Unlike setup this is not retried; a bad acknowledgment is surfaced.
func (s *Session) DisablePWM() error {
	if err := s.checkMode("disable pwm", ModeBitbang); err != nil {
		return err
	}
	if err := s.writeByte(CmdClearPWM); err != nil {
		return err
	}
	if err := s.t.SetTimeout(10 * s.cfg.MinDelay); err != nil {
		return err
	}

	buf, err := s.readExact(1)
	if err != nil {
		return err
	}
	if buf[0] != AckByte {
		return &SetupError{Op: "disable PWM mode"}
	}
	return nil
}
