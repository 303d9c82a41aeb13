// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

// Package capture reads and writes session capture files: a contiguous
// sequence of CBOR-encoded frame records, one per decoded or transmitted
// frame. The format is append-friendly so a capture survives an interrupted
// monitoring session up to the last complete record.
package capture

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Frame directions.
const (
	DirectionRx = "rx"
	DirectionTx = "tx"
)

// Record is one captured frame.
type Record struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Direction string    `cbor:"2,keyasint"`
	Command   uint8     `cbor:"3,keyasint"`
	Payload   []byte    `cbor:"4,keyasint,omitempty"`
}

// Writer appends records to a capture stream.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter creates a capture writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode capture record: %w", err)
	}
	return nil
}

// Reader iterates over the records of a capture stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a capture reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF when the stream is exhausted. A
// truncated trailing record yields io.ErrUnexpectedEOF.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("decode capture record: %w", err)
	}
	return rec, nil
}
