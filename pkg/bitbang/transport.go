// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

package bitbang

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Transport is the byte-level link to the probe. Reads are bounded by the
// deadline set via SetTimeout; a timed-out read returns whatever arrived
// without error, so callers detect short reads by length.
type Transport interface {
	Write(p []byte) error
	Read(n int) ([]byte, error)
	SetTimeout(d time.Duration) error
	FlushInput() error
	Close() error
}

// SerialTransport drives the probe over a local serial port.
type SerialTransport struct {
	port serial.Port
}

// OpenSerial opens a serial port in the probe's fixed 8N1 framing.
func OpenSerial(portName string, baudRate int) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	return &SerialTransport{port: port}, nil
}

// NewSerialTransport wraps an already-open serial port.
func NewSerialTransport(port serial.Port) *SerialTransport {
	return &SerialTransport{port: port}
}

func (s *SerialTransport) Write(p []byte) error {
	_, err := s.port.Write(p)
	return err
}

// Read collects up to n bytes. A zero-byte read from the port signals the
// read deadline expired; whatever was collected so far is returned.
func (s *SerialTransport) Read(n int) ([]byte, error) {
	buf := make([]byte, 0, n)
	chunk := make([]byte, n)

	for len(buf) < n {
		got, err := s.port.Read(chunk[:n-len(buf)])
		if err != nil {
			return buf, err
		}
		if got == 0 {
			return buf, nil
		}
		buf = append(buf, chunk[:got]...)
	}

	return buf, nil
}

func (s *SerialTransport) SetTimeout(d time.Duration) error {
	return s.port.SetReadTimeout(d)
}

func (s *SerialTransport) FlushInput() error {
	return s.port.ResetInputBuffer()
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}
