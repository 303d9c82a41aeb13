// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package vescproto

import "fmt"

// Encode builds a complete wire frame for command and payload. The start
// marker and length width are chosen from the body size (command + payload);
// the CRC covers the body only, never the framing.
func Encode(command uint8, payload []byte) ([]byte, error) {
	bodyLen := len(payload) + 1
	if bodyLen > MaxBody {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrBodyTooLarge, bodyLen, MaxBody)
	}

	frame := make([]byte, 0, bodyLen+7)
	switch {
	case bodyLen <= MaxShortBody:
		frame = append(frame, StartShort, byte(bodyLen))
	case bodyLen <= MaxMediumBody:
		frame = append(frame, StartMedium, byte(bodyLen>>8), byte(bodyLen))
	default:
		frame = append(frame, StartLong, byte(bodyLen>>16), byte(bodyLen>>8), byte(bodyLen))
	}

	bodyStart := len(frame)
	frame = append(frame, command)
	frame = append(frame, payload...)

	crc := CalculateCRC(frame[bodyStart:])
	frame = append(frame, byte(crc>>8), byte(crc), EndByte)

	return frame, nil
}

// EncodeFrame encodes an existing Frame back to wire format.
func EncodeFrame(f *Frame) ([]byte, error) {
	return Encode(f.Command(), f.Payload())
}
