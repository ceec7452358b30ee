// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/seafoam-labs/corsair/pkg/bitbang"
	"github.com/spf13/cobra"
)

var (
	pinsInputMask uint8
	pinsHold      int
)

var pinsCmd = &cobra.Command{
	Use:   "pins [pin-names...]",
	Short: "Drive the bitbang pins and peripherals",
	Long: `Set the bitbang pin states and print the device's read-back byte.

Pins named as arguments are driven high; all others low. Valid names:
  power pullup aux mosi clk miso cs

POWER and PULLUP switch the supply and pull-up peripherals rather than an
I/O pin. With --inputs, the given pins are configured as inputs first so
the read-back reflects external levels.

Pin states only exist inside bitbang mode: leaving it reboots the device
and releases everything. Use --hold to keep the state asserted for a number
of seconds before the device is reset.`,
	RunE: runPins,
}

func init() {
	rootCmd.AddCommand(pinsCmd)
	pinsCmd.Flags().Uint8Var(&pinsInputMask, "inputs", 0, "Pin direction mask to apply first (bit set = input)")
	pinsCmd.Flags().IntVar(&pinsHold, "hold", 0, "Seconds to hold the pin state before resetting the device")
}

// pinBits maps CLI pin names to their state-byte bits
var pinBits = map[string]byte{
	"power":  bitbang.PinPower,
	"pullup": bitbang.PinPullup,
	"aux":    bitbang.PinAux,
	"mosi":   bitbang.PinMosi,
	"clk":    bitbang.PinClk,
	"miso":   bitbang.PinMiso,
	"cs":     bitbang.PinCS,
}

func runPins(cmd *cobra.Command, args []string) error {
	var mask byte
	for _, name := range args {
		bit, ok := pinBits[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown pin %q (valid: power pullup aux mosi clk miso cs)", name)
		}
		mask |= bit
	}

	session, t, connInfo, err := OpenSession()
	if err != nil {
		return err
	}
	defer t.Close()
	defer session.Reset()

	fmt.Printf("Connection: %s\n", connInfo)

	if cmd.Flags().Changed("inputs") {
		state, err := session.SetPinDirections(pinsInputMask)
		if err != nil {
			return fmt.Errorf("could not set pin directions: %w", err)
		}
		fmt.Printf("Directions applied, state: %s\n", bitbang.FormatPinState(state))
	}

	state, err := session.SetPins(mask)
	if err != nil {
		return fmt.Errorf("could not set pins: %w", err)
	}

	fmt.Printf("Requested: %s\n", bitbang.FormatPinState(mask))
	fmt.Printf("Read-back: %s\n", bitbang.FormatPinState(state))

	if pinsHold > 0 {
		fmt.Printf("Holding for %d second(s)...\n", pinsHold)
		time.Sleep(time.Duration(pinsHold) * time.Second)
	}

	return nil
}
