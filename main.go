// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs
//
// Corsair - Bus Pirate bitbang control tool
//
// A CLI tool for driving a Bus Pirate probe in binary bitbang mode:
// ADC sampling, PWM output, pin control and device self-test.

package main

import (
	"os"

	"github.com/seafoam-labs/corsair/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
