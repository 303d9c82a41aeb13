// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package vesclient

import (
	"errors"
	"time"

	"github.com/openvesc/vescli/pkg/vescproto"
)

// ErrTimeout reports that no valid response frame arrived before the
// transaction deadline. It is a first-class outcome, distinct from a
// transport failure: the caller decides whether retrying is sensible.
var ErrTimeout = errors.New("request timed out")

// readSlice bounds a single transport read so the transaction deadline is
// re-checked regularly. Several small reads must not sum to an unbounded
// wait.
const readSlice = 250 * time.Millisecond

// Client runs synchronous request/response transactions over a Transport.
// Exactly one transaction is outstanding at a time per transport instance;
// the client does not pipeline. A Client must not share its transport with a
// concurrent writer.
type Client struct {
	transport Transport
	decoder   *vescproto.Decoder
}

// NewClient creates a transaction client on transport.
func NewClient(transport Transport) *Client {
	return &Client{
		transport: transport,
		decoder:   vescproto.NewDecoder(),
	}
}

// Send encodes and writes a command frame without waiting for a response.
// Used for commands that drop the connection, like jump-to-bootloader.
func (c *Client) Send(command uint8, payload []byte) error {
	frame, err := vescproto.Encode(command, payload)
	if err != nil {
		return err
	}
	if err := c.transport.Send(frame); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// Request sends a command frame and waits until one complete, CRC-valid
// frame is extracted from the byte stream or timeout elapses.
//
// CRC mismatches and garbage bytes are discarded silently; only the overall
// deadline or a hard transport failure ends the wait. Bytes left over from a
// previous exchange are dropped before sending.
func (c *Client) Request(command uint8, payload []byte, timeout time.Duration) (*vescproto.Frame, error) {
	c.decoder.Reset()

	if err := c.Send(command, payload); err != nil {
		return nil, err
	}
	return c.Await(timeout)
}

// Await waits for the next valid frame without sending anything. Useful for
// commands like COMM_TERMINAL_CMD that answer with a stream of COMM_PRINT
// frames.
func (c *Client) Await(timeout time.Duration) (*vescproto.Frame, error) {
	deadline := time.Now().Add(timeout)

	for {
		// Drain everything already buffered before blocking again.
		for {
			frame, err := c.decoder.Next()
			if err != nil {
				// Corrupt frame: discard and keep listening.
				continue
			}
			if frame == nil {
				break
			}
			return frame, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrTimeout
		}
		if remaining > readSlice {
			remaining = readSlice
		}

		data, err := c.transport.Receive(remaining)
		if err != nil {
			return nil, &TransportError{Op: "receive", Err: err}
		}
		c.decoder.Write(data)
	}
}

// Decoder exposes the receive-side decoder, mainly for its error counters.
func (c *Client) Decoder() *vescproto.Decoder {
	return c.decoder
}
