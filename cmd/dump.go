// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/seafoam-labs/corsair/pkg/bitbang"
	"github.com/seafoam-labs/corsair/pkg/capture"
	"github.com/spf13/cobra"
)

var (
	dumpSummaryOnly bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <log-file>",
	Short: "Decode a recorded ADC sample log",
	Long: `Decode a CBOR sample log written by "adc stream --record".

Each sample is printed with its offset from the start of the recording and
the voltage derived from the stored raw value. A summary with minimum,
maximum and mean voltage follows the samples.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().BoolVar(&dumpSummaryOnly, "summary", false, "Print only the summary, not every sample")
}

func runDump(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		return fmt.Errorf("could not read sample log: %w", err)
	}

	header := r.Header()
	fmt.Printf("Sample log: %s\n", args[0])
	fmt.Printf("Format version: %d\n", header.Version)
	fmt.Printf("Recorded: %s\n\n", header.Started.Format(time.RFC3339))

	count := 0
	var minV, maxV, sumV float64
	var lastOffset time.Duration

	for {
		s, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("sample %d: %w", count, err)
		}

		voltage := bitbang.RawToVoltage(s.Raw)
		if count == 0 || voltage < minV {
			minV = voltage
		}
		if count == 0 || voltage > maxV {
			maxV = voltage
		}
		sumV += voltage
		lastOffset = s.Offset
		count++

		if !dumpSummaryOnly {
			fmt.Printf("%12s  raw=%4d  %s\n",
				s.Offset.Round(time.Millisecond), s.Raw, bitbang.FormatVoltage(voltage))
		}
	}

	if count == 0 {
		fmt.Printf("Log contains no samples\n")
		return nil
	}

	fmt.Printf("\nSamples: %d over %s\n", count, lastOffset.Round(time.Millisecond))
	fmt.Printf("Min:  %s\n", bitbang.FormatVoltage(minV))
	fmt.Printf("Max:  %s\n", bitbang.FormatVoltage(maxV))
	fmt.Printf("Mean: %s\n", bitbang.FormatVoltage(sumV/float64(count)))
	return nil
}
