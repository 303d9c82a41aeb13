// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

// Package vesclient implements the synchronous request/response transaction
// model of the VESC protocol on top of an abstract byte transport.
package vesclient

import (
	"fmt"
	"time"
)

// Transport is a bidirectional byte stream the protocol is carried over
// (TCP, serial, a websocket bridge). Implementations live outside this
// package; the core is transport-agnostic.
type Transport interface {
	// Send writes p in full or returns an error.
	Send(p []byte) error

	// Receive returns whatever bytes are available within timeout. An empty
	// slice with a nil error means the timeout elapsed with no data, which is
	// not an error. A non-nil error means the transport is broken.
	Receive(timeout time.Duration) ([]byte, error)

	// Close releases the transport.
	Close() error
}

// Dialer re-establishes a transport to the same device, used after the
// device reboots during a firmware update.
type Dialer func() (Transport, error)

// TransportError wraps a hard I/O failure (connection refused, reset, closed
// port). It is fatal to the current transaction and never retried internally.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
