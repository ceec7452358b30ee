// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"fmt"
	"strconv"

	"github.com/seafoam-labs/corsair/pkg/bitbang"
	"github.com/spf13/cobra"
)

var (
	pwmDutyCycle float64
)

var pwmCmd = &cobra.Command{
	Use:   "pwm",
	Short: "Control the PWM output",
}

var pwmSetCmd = &cobra.Command{
	Use:   "set <frequency-hz>",
	Short: "Enable PWM output at a given frequency",
	Long: `Configure the AUX pin as a PWM output.

The frequency in hertz may be fractional. The timer prescaler, period and
duty registers are computed on the host from the device's 24 MHz oscillator;
frequencies that do not fit any prescaler are rejected.

The output keeps running after this command exits. Use "pwm off" to stop it.`,
	Args: cobra.ExactArgs(1),
	RunE: runPWMSet,
}

var pwmOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable the PWM output",
	RunE:  runPWMOff,
}

func init() {
	rootCmd.AddCommand(pwmCmd)
	pwmCmd.AddCommand(pwmSetCmd)
	pwmCmd.AddCommand(pwmOffCmd)

	pwmSetCmd.Flags().Float64VarP(&pwmDutyCycle, "duty", "d", 0.5, "Duty cycle as a fraction (0.0 to 1.0)")
}

func runPWMSet(cmd *cobra.Command, args []string) error {
	frequency, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid frequency %q: %v", args[0], err)
	}

	// Reject bad arguments before opening the connection
	config, err := bitbang.PWMConfigFor(frequency, pwmDutyCycle)
	if err != nil {
		return err
	}

	// No reset on exit: 0x0F reboots the device, which would stop the
	// output we just configured. The device is left in bitbang mode.
	session, t, connInfo, err := OpenSession()
	if err != nil {
		return err
	}
	defer t.Close()

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("PWM: %g Hz, %.1f%% duty (prescaler 1:%d, period %d, duty %d)\n",
		frequency, pwmDutyCycle*100, bitbang.PrescalerDivisor(config.Prescaler),
		config.Period, config.Duty)

	if err := session.SetPWMFrequency(frequency, pwmDutyCycle); err != nil {
		return fmt.Errorf("PWM setup failed: %w", err)
	}

	fmt.Printf("PWM output enabled\n")
	return nil
}

func runPWMOff(cmd *cobra.Command, args []string) error {
	session, t, connInfo, err := OpenSession()
	if err != nil {
		return err
	}
	defer t.Close()
	defer session.Reset()

	fmt.Printf("Connection: %s\n", connInfo)

	if err := session.DisablePWM(); err != nil {
		return fmt.Errorf("PWM disable failed: %w", err)
	}

	fmt.Printf("PWM output disabled\n")
	return nil
}
