// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package vescproto

import "time"

// Frame represents one decoded unit of the wire protocol: a command byte and
// its payload, stamped at decode time.
type Frame struct {
	command   uint8
	payload   []byte
	crc       uint16
	timestamp time.Time
}

// NewFrame creates a frame with the given command and payload. The CRC is
// derived the same way the encoder derives it.
func NewFrame(command uint8, payload []byte) *Frame {
	body := make([]byte, 0, len(payload)+1)
	body = append(body, command)
	body = append(body, payload...)
	return &Frame{
		command:   command,
		payload:   payload,
		crc:       CalculateCRC(body),
		timestamp: time.Now(),
	}
}

// Command returns the frame's command identifier.
func (f *Frame) Command() uint8 {
	return f.command
}

// Payload returns the frame's payload bytes.
func (f *Frame) Payload() []byte {
	return f.payload
}

// CRC returns the frame's checksum as carried on the wire.
func (f *Frame) CRC() uint16 {
	return f.crc
}

// Timestamp returns the frame's decode timestamp.
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}
