// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/seafoam-labs/corsair/pkg/bitbang"
	"github.com/seafoam-labs/corsair/pkg/capture"
	"github.com/spf13/cobra"
)

var (
	adcStreamCount  int
	adcStreamRecord string
	adcRawOutput    bool
)

var adcCmd = &cobra.Command{
	Use:   "adc",
	Short: "Read the ADC voltage once",
	Long: `Take a single measurement on the device's analog input.

The device returns a raw 10-bit sample which is scaled against the 6.6 V
reference. Use "adc stream" for continuous measurement.`,
	RunE: runADC,
}

var adcStreamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream ADC voltage continuously",
	Long: `Put the device into continuous ADC mode and print samples as they
arrive.

With --count 0 the stream runs until interrupted (Ctrl-C). The device is
always returned to bitbang mode on exit, including on interrupt.

With --record the raw samples are also appended to a CBOR sample log,
which can be decoded later with the "dump" command.`,
	RunE: runADCStream,
}

func init() {
	rootCmd.AddCommand(adcCmd)
	adcCmd.AddCommand(adcStreamCmd)

	adcCmd.Flags().BoolVar(&adcRawOutput, "raw", false, "Print the raw 10-bit sample instead of volts")

	adcStreamCmd.Flags().IntVarP(&adcStreamCount, "count", "n", 0, "Number of samples to read (0 = until interrupted)")
	adcStreamCmd.Flags().StringVar(&adcStreamRecord, "record", "", "Append raw samples to a CBOR log file")
	adcStreamCmd.Flags().BoolVar(&adcRawOutput, "raw", false, "Print the raw 10-bit sample instead of volts")
}

func runADC(cmd *cobra.Command, args []string) error {
	session, t, connInfo, err := OpenSession()
	if err != nil {
		return err
	}
	defer t.Close()
	defer session.Reset()

	fmt.Printf("Connection: %s\n", connInfo)

	raw, voltage, err := session.ReadSample()
	if err != nil {
		return fmt.Errorf("ADC read failed: %w", err)
	}

	if adcRawOutput {
		fmt.Printf("Raw: %d (0x%04X)\n", raw, raw)
	}
	fmt.Printf("Voltage: %s\n", bitbang.FormatVoltage(voltage))
	return nil
}

func runADCStream(cmd *cobra.Command, args []string) error {
	session, t, connInfo, err := OpenSession()
	if err != nil {
		return err
	}
	defer t.Close()
	defer session.Reset()

	fmt.Printf("Connection: %s\n", connInfo)

	var logWriter *capture.Writer
	started := time.Now()
	if adcStreamRecord != "" {
		f, err := os.Create(adcStreamRecord)
		if err != nil {
			return fmt.Errorf("could not create sample log: %w", err)
		}
		defer f.Close()

		logWriter, err = capture.NewWriter(f, started)
		if err != nil {
			return fmt.Errorf("could not write sample log header: %w", err)
		}
		fmt.Printf("Recording to: %s\n", adcStreamRecord)
	}

	if adcStreamCount > 0 {
		fmt.Printf("Streaming %d samples (Ctrl-C to stop early)...\n\n", adcStreamCount)
	} else {
		fmt.Printf("Streaming until interrupted (Ctrl-C to stop)...\n\n")
	}

	// Ctrl-C ends the stream loop; the deferred Reset still runs.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	if err := session.StartStream(); err != nil {
		return fmt.Errorf("could not start ADC stream: %w", err)
	}

	// Stop the stream before the device is reset, whatever the loop outcome.
	defer func() {
		if err := session.StopStream(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not stop ADC stream: %v\n", err)
		}
	}()

	read := 0
	for adcStreamCount == 0 || read < adcStreamCount {
		select {
		case <-interrupt:
			fmt.Printf("\nInterrupted after %d samples\n", read)
			return nil
		default:
		}

		raw, voltage, err := session.NextSample()
		if err != nil {
			if errors.Is(err, bitbang.ErrResyncLimit) {
				return fmt.Errorf("stream lost sync and could not recover: %w", err)
			}
			return fmt.Errorf("stream read failed: %w", err)
		}
		read++

		if adcRawOutput {
			fmt.Printf("%8d  raw=%4d  %s\n", read, raw, bitbang.FormatVoltage(voltage))
		} else {
			fmt.Printf("%8d  %s\n", read, bitbang.FormatVoltage(voltage))
		}

		if logWriter != nil {
			s := capture.Sample{Offset: time.Since(started), Raw: raw}
			if err := logWriter.WriteSample(s); err != nil {
				return fmt.Errorf("could not record sample: %w", err)
			}
		}
	}

	fmt.Printf("\nDone: %d samples\n", read)
	return nil
}
