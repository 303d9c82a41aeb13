// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package vescproto

import "errors"

var (
	// ErrCRCMismatch reports a complete frame whose embedded CRC does not
	// match the recomputed one. Corruption is expected on noisy transports;
	// callers should discard the frame and keep listening.
	ErrCRCMismatch = errors.New("crc mismatch")

	// ErrMalformedFrame reports a byte span that cannot be a valid frame.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrBodyTooLarge reports a payload that exceeds the 3-byte length field.
	ErrBodyTooLarge = errors.New("frame body too large")
)
