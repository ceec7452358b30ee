// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Protocol timing
	minDelayMs int
)

var rootCmd = &cobra.Command{
	Use:   "corsair",
	Short: "Bus Pirate bitbang control tool",
	Long: `Corsair - drive a Bus Pirate probe in binary bitbang mode.

Provides commands for ADC voltage measurement (one-shot and continuous with
recording), PWM output configuration, pin control and the device self-test.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the CORSAIR_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.2.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket bridge flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Timing
	rootCmd.PersistentFlags().IntVar(&minDelayMs, "min-delay", 100, "Baseline device settling delay in milliseconds")
}

// minDelay returns the --min-delay flag as a duration
func minDelay() time.Duration {
	return time.Duration(minDelayMs) * time.Millisecond
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
