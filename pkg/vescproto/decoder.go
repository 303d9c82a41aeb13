// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package vescproto

import (
	"encoding/binary"
	"fmt"
)

// headerLen returns the framing header width (start marker + length field)
// for a start marker, or 0 for an unrecognized marker.
func headerLen(start byte) int {
	switch start {
	case StartShort:
		return 2
	case StartMedium:
		return 3
	case StartLong:
		return 4
	default:
		return 0
	}
}

// TryExtractFrame scans buf for one complete frame starting at offset 0.
//
// It returns (frame, n) when buf begins with a complete frame of n bytes,
// (nil, 0) when more data is needed, or (nil, 1) when buf[0] cannot start a
// valid frame and should be dropped for resynchronization. A bad end marker
// also yields (nil, 1): the leading start byte is treated as spurious so the
// parser retries from the next byte instead of desynchronizing permanently.
//
// Callers are expected to invoke it in a loop, removing consumed bytes from
// the front of their receive buffer after every call.
func TryExtractFrame(buf []byte) (frame []byte, consumed int) {
	if len(buf) < minFrameLen {
		return nil, 0
	}

	hdr := headerLen(buf[0])
	if hdr == 0 {
		return nil, 1
	}

	bodyLen := 0
	for _, b := range buf[1:hdr] {
		bodyLen = bodyLen<<8 | int(b)
	}
	// The body always carries at least the command byte.
	if bodyLen == 0 {
		return nil, 1
	}

	total := hdr + bodyLen + 3
	if len(buf) < total {
		return nil, 0
	}

	if buf[total-1] != EndByte {
		return nil, 1
	}

	return buf[:total], total
}

// ParseFrame validates a complete frame as returned by TryExtractFrame and
// splits it into command and payload. The CRC is recomputed over the embedded
// body; a mismatch yields ErrCRCMismatch.
func ParseFrame(frame []byte) (command uint8, payload []byte, err error) {
	if len(frame) < minFrameLen {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(frame))
	}

	hdr := headerLen(frame[0])
	if hdr == 0 {
		return 0, nil, fmt.Errorf("%w: invalid start marker 0x%02X", ErrMalformedFrame, frame[0])
	}

	bodyLen := 0
	for _, b := range frame[1:hdr] {
		bodyLen = bodyLen<<8 | int(b)
	}
	if bodyLen == 0 || len(frame) != hdr+bodyLen+3 {
		return 0, nil, fmt.Errorf("%w: length field %d does not match frame of %d bytes",
			ErrMalformedFrame, bodyLen, len(frame))
	}
	if frame[len(frame)-1] != EndByte {
		return 0, nil, fmt.Errorf("%w: invalid end marker 0x%02X", ErrMalformedFrame, frame[len(frame)-1])
	}

	body := frame[hdr : hdr+bodyLen]
	want := binary.BigEndian.Uint16(frame[hdr+bodyLen:])
	if got := CalculateCRC(body); got != want {
		return 0, nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrCRCMismatch, want, got)
	}

	return body[0], body[1:], nil
}

// Decoder accumulates bytes from a transport and extracts frames from them,
// resynchronizing past garbage one byte at a time.
type Decoder struct {
	buf           []byte
	framesDecoded uint64
	crcErrors     uint64
	resyncedBytes uint64
}

// NewDecoder creates a new protocol decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Write appends bytes read from the transport to the receive buffer.
func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next extracts the next frame from the receive buffer.
//
// It returns (frame, nil) for a valid frame, (nil, nil) when the buffer holds
// no complete frame yet, or (nil, err) when a complete frame failed CRC
// validation. The corrupt frame's bytes are consumed before returning, so the
// caller can simply keep calling Next.
func (d *Decoder) Next() (*Frame, error) {
	for {
		raw, consumed := TryExtractFrame(d.buf)
		if raw == nil {
			if consumed == 0 {
				return nil, nil
			}
			d.buf = d.buf[consumed:]
			d.resyncedBytes += uint64(consumed)
			continue
		}

		command, payload, err := ParseFrame(raw)
		d.buf = d.buf[consumed:]
		if err != nil {
			d.crcErrors++
			return nil, err
		}

		d.framesDecoded++
		return NewFrame(command, append([]byte(nil), payload...)), nil
	}
}

// Buffered returns the number of bytes waiting in the receive buffer.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset discards buffered bytes. Counters are kept.
func (d *Decoder) Reset() {
	d.buf = nil
}

// FramesDecoded returns the number of valid frames extracted so far.
func (d *Decoder) FramesDecoded() uint64 {
	return d.framesDecoded
}

// CRCErrors returns the number of complete frames that failed CRC validation.
func (d *Decoder) CRCErrors() uint64 {
	return d.crcErrors
}

// ResyncedBytes returns the number of bytes dropped during resynchronization.
func (d *Decoder) ResyncedBytes() uint64 {
	return d.resyncedBytes
}
