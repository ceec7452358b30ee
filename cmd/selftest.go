// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	selfTestComplete bool
)

var selfTestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the device self-test",
	Long: `Run the device's built-in self-test and report the error count.

The short test checks the I/O pins. The full test (--complete) also checks
the voltage regulators, and requires the VREG and ADC jumpers to be
installed on the probe.

Exit codes:
  0 - Self-test passed (zero errors)
  1 - Self-test reported errors, or the device misbehaved
  2 - Connection error`,
	RunE: runSelfTest,
}

func init() {
	rootCmd.AddCommand(selfTestCmd)
	selfTestCmd.Flags().BoolVar(&selfTestComplete, "complete", false, "Run the full test including voltage regulators (jumpers required)")
}

func runSelfTest(cmd *cobra.Command, args []string) error {
	session, t, connInfo, err := OpenSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer t.Close()
	defer session.Reset()

	fmt.Printf("Connection: %s\n", connInfo)
	if selfTestComplete {
		fmt.Printf("Running full self-test (VREG and ADC jumpers must be installed)...\n")
	} else {
		fmt.Printf("Running short self-test...\n")
	}

	errorCount, err := session.SelfTest(selfTestComplete)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Self-test failed: %v\n", err)
		os.Exit(1)
	}

	if errorCount == 0 {
		fmt.Printf("PASS: no errors reported\n")
		return nil
	}

	fmt.Fprintf(os.Stderr, "FAIL: device reported %d error(s)\n", errorCount)
	os.Exit(1)
	return nil
}
