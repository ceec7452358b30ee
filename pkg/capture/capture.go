// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Seafoam Labs

// Package capture implements the corsair ADC sample-log format.
//
// A log is a CBOR stream: one header array [magic, version, startUnixMs]
// followed by one [offsetMs, raw] array per sample. Raw 16-bit samples are
// stored instead of voltages so a log can be re-decoded if the reference
// scaling ever changes.
package capture

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Log format identification
const (
	Magic   = "CSADC"
	Version = 1
)

// Header describes a sample log.
type Header struct {
	Version int
	Started time.Time
}

// Sample is one recorded ADC reading.
type Sample struct {
	// Offset is the time since the stream started.
	Offset time.Duration
	// Raw is the big-endian 16-bit sample as read from the device.
	Raw uint16
}

// Writer appends samples to a CBOR sample log.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter writes the log header to w and returns a Writer for samples.
func NewWriter(w io.Writer, started time.Time) (*Writer, error) {
	enc := cbor.NewEncoder(w)

	header := []interface{}{Magic, uint64(Version), uint64(started.UnixMilli())}
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("failed to encode log header: %w", err)
	}

	return &Writer{enc: enc}, nil
}

// WriteSample appends one sample record.
func (w *Writer) WriteSample(s Sample) error {
	record := []interface{}{uint64(s.Offset.Milliseconds()), uint64(s.Raw)}
	if err := w.enc.Encode(record); err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}
	return nil
}

// Reader decodes a CBOR sample log.
type Reader struct {
	dec    *cbor.Decoder
	header Header
}

// NewReader validates the log header and returns a Reader for samples.
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(r)

	var header []interface{}
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("failed to decode log header: %w", err)
	}
	if len(header) != 3 {
		return nil, fmt.Errorf("malformed header: expected 3 elements, got %d", len(header))
	}

	magic, ok := header[0].(string)
	if !ok || magic != Magic {
		return nil, fmt.Errorf("not a corsair sample log (magic %v)", header[0])
	}

	version, ok := asUint(header[1])
	if !ok || version != Version {
		return nil, fmt.Errorf("unsupported log version %v", header[1])
	}

	startMs, ok := asUint(header[2])
	if !ok {
		return nil, fmt.Errorf("malformed header: bad start timestamp %v", header[2])
	}

	return &Reader{
		dec: dec,
		header: Header{
			Version: int(version),
			Started: time.UnixMilli(int64(startMs)),
		},
	}, nil
}

// Header returns the decoded log header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next sample, or io.EOF at the end of the log.
func (r *Reader) Next() (Sample, error) {
	var record []interface{}
	if err := r.dec.Decode(&record); err != nil {
		if err == io.EOF {
			return Sample{}, io.EOF
		}
		return Sample{}, fmt.Errorf("failed to decode sample: %w", err)
	}

	if len(record) != 2 {
		return Sample{}, fmt.Errorf("malformed sample: expected 2 elements, got %d", len(record))
	}

	offsetMs, ok := asUint(record[0])
	if !ok {
		return Sample{}, fmt.Errorf("malformed sample: bad offset %v", record[0])
	}
	raw, ok := asUint(record[1])
	if !ok || raw > 0xFFFF {
		return Sample{}, fmt.Errorf("malformed sample: bad raw value %v", record[1])
	}

	return Sample{
		Offset: time.Duration(offsetMs) * time.Millisecond,
		Raw:    uint16(raw),
	}, nil
}

// asUint normalizes CBOR integer decodings, which may arrive as uint64 or
// int64 depending on the encoder.
func asUint(v interface{}) (uint64, bool) {
	switch val := v.(type) {
	case uint64:
		return val, true
	case int64:
		if val >= 0 {
			return uint64(val), true
		}
	}
	return 0, false
}
