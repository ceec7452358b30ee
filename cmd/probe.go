// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"fmt"
	"os"

	"github.com/seafoam-labs/corsair/pkg/bitbang"
	"github.com/spf13/cobra"
)

var (
	probeStayInBitbang bool
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test connection by entering binary bitbang mode",
	Long: `Connect to the device and perform the bitbang mode handshake.

This command connects to a serial port or WebSocket bridge, sends the reset
opcode until the device answers with its BBIO1 banner, then returns the
device to the terminal interface.

Exit codes:
  0 - Handshake succeeded
  1 - Device did not answer with the bitbang banner
  2 - Connection error

Useful for verifying cabling, baud rate and bridge credentials before
running measurement commands.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().BoolVar(&probeStayInBitbang, "stay", false, "Leave the device in bitbang mode on exit")
}

func runProbe(cmd *cobra.Command, args []string) error {
	t, connInfo, err := OpenTransport()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer t.Close()

	fmt.Printf("Corsair - Probe Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Waiting for bitbang banner...\n\n")

	session := bitbang.New(t, bitbang.WithMinDelay(minDelay()))
	if err := session.Enter(); err != nil {
		fmt.Fprintf(os.Stderr, "FAILED: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("SUCCESS: device answered %s\n", bitbang.BitbangBanner)
	fmt.Printf("  Mode: %s\n", bitbang.FormatMode(session.Mode()))

	if !probeStayInBitbang {
		if err := session.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not return device to terminal mode: %v\n", err)
		} else {
			fmt.Printf("  Device returned to terminal mode\n")
		}
	}

	return nil
}
