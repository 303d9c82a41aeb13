// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package capture

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	records := []Record{
		{Timestamp: time.Unix(1700000000, 0).UTC(), Direction: DirectionTx, Command: 30},
		{Timestamp: time.Unix(1700000001, 500000000).UTC(), Direction: DirectionRx, Command: 30, Payload: []byte{0x01}},
		{Timestamp: time.Unix(1700000002, 0).UTC(), Direction: DirectionRx, Command: 21, Payload: []byte("hello")},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	r := NewReader(&buf)
	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("record %d timestamp %v, want %v", i, got.Timestamp, want.Timestamp)
		}
		if got.Direction != want.Direction {
			t.Errorf("record %d direction %q, want %q", i, got.Direction, want.Direction)
		}
		if got.Command != want.Command {
			t.Errorf("record %d command %d, want %d", i, got.Command, want.Command)
		}
		if !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("record %d payload % X, want % X", i, got.Payload, want.Payload)
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last record, got %v", err)
	}
}

func TestReader_TruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(Record{Direction: DirectionRx, Command: 4, Payload: []byte{1, 2, 3}}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Chop off the tail of the only record.
	data := buf.Bytes()[:buf.Len()-2]

	r := NewReader(bytes.NewReader(data))
	_, err := r.Next()
	if err == nil {
		t.Fatal("expected error for truncated record")
	}
	if err == io.EOF {
		t.Fatal("truncation must not be reported as a clean EOF")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestReader_EmptyStream(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF on empty stream, got %v", err)
	}
}
