// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package vesclient

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/openvesc/vescli/pkg/vescproto"
)

// scriptTransport is a Transport whose receive side replays a fixed script
// of byte chunks, one chunk per Receive call. An empty chunk simulates a
// read timeout.
type scriptTransport struct {
	sent    [][]byte
	script  [][]byte
	pos     int
	readErr error
	sendErr error
}

func (s *scriptTransport) Send(p []byte) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, append([]byte(nil), p...))
	return nil
}

func (s *scriptTransport) Receive(timeout time.Duration) ([]byte, error) {
	if s.pos >= len(s.script) {
		if s.readErr != nil {
			return nil, s.readErr
		}
		return nil, nil // timeout with no data
	}
	chunk := s.script[s.pos]
	s.pos++
	return chunk, nil
}

func (s *scriptTransport) Close() error { return nil }

func encode(t *testing.T, command uint8, payload []byte) []byte {
	t.Helper()
	frame, err := vescproto.Encode(command, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return frame
}

func TestRequest_SendsEncodedFrame(t *testing.T) {
	response := encode(t, vescproto.CmdAlive, []byte{1})
	transport := &scriptTransport{script: [][]byte{response}}

	client := NewClient(transport)
	frame, err := client.Request(vescproto.CmdAlive, nil, time.Second)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if len(transport.sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(transport.sent))
	}
	want := []byte{0x02, 0x01, 0x1E, 0xF3, 0xFF, 0x03}
	if !bytes.Equal(transport.sent[0], want) {
		t.Errorf("wire bytes % X, want % X", transport.sent[0], want)
	}
	if frame.Command() != vescproto.CmdAlive {
		t.Errorf("response command 0x%02X", frame.Command())
	}
}

func TestRequest_ResponseSplitAcrossReads(t *testing.T) {
	response := encode(t, vescproto.CmdFwVersion, []byte{6, 2, 'h', 'w', 0})

	// Deliver the response one byte per read, with empty reads mixed in.
	var script [][]byte
	for i, b := range response {
		if i%3 == 0 {
			script = append(script, nil)
		}
		script = append(script, []byte{b})
	}
	transport := &scriptTransport{script: script}

	client := NewClient(transport)
	frame, err := client.Request(vescproto.CmdFwVersion, nil, time.Second)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if frame.Command() != vescproto.CmdFwVersion {
		t.Errorf("command 0x%02X, want 0x%02X", frame.Command(), uint8(vescproto.CmdFwVersion))
	}
	if !bytes.Equal(frame.Payload(), []byte{6, 2, 'h', 'w', 0}) {
		t.Errorf("payload mismatch: % X", frame.Payload())
	}
}

func TestRequest_GarbageBeforeResponse(t *testing.T) {
	response := encode(t, vescproto.CmdAlive, []byte{1})
	transport := &scriptTransport{script: [][]byte{
		{0xDE, 0xAD, 0xBE, 0xEF},
		response,
	}}

	client := NewClient(transport)
	frame, err := client.Request(vescproto.CmdAlive, nil, time.Second)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if frame.Command() != vescproto.CmdAlive {
		t.Errorf("command 0x%02X", frame.Command())
	}
}

func TestRequest_CorruptFrameThenValid(t *testing.T) {
	good := encode(t, vescproto.CmdAlive, []byte{1})
	bad := append([]byte(nil), good...)
	bad[2] ^= 0xFF

	transport := &scriptTransport{script: [][]byte{bad, good}}

	client := NewClient(transport)
	frame, err := client.Request(vescproto.CmdAlive, nil, time.Second)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if frame.Command() != vescproto.CmdAlive {
		t.Errorf("command 0x%02X", frame.Command())
	}
	if client.Decoder().CRCErrors() != 1 {
		t.Errorf("CRCErrors = %d, want 1", client.Decoder().CRCErrors())
	}
}

func TestRequest_Timeout(t *testing.T) {
	transport := &scriptTransport{} // never produces data

	client := NewClient(transport)
	start := time.Now()
	_, err := client.Request(vescproto.CmdAlive, nil, 300*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("timeout took %v, far beyond the deadline", elapsed)
	}
}

func TestRequest_TransportError(t *testing.T) {
	transport := &scriptTransport{readErr: io.ErrClosedPipe}

	client := NewClient(transport)
	_, err := client.Request(vescproto.CmdAlive, nil, time.Second)

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("TransportError should wrap the underlying error")
	}
	// A transport failure must never masquerade as a timeout.
	if errors.Is(err, ErrTimeout) {
		t.Error("transport error conflated with timeout")
	}
}

func TestRequest_SendError(t *testing.T) {
	transport := &scriptTransport{sendErr: io.ErrClosedPipe}

	client := NewClient(transport)
	_, err := client.Request(vescproto.CmdAlive, nil, time.Second)

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestRequest_DiscardsStaleBytes(t *testing.T) {
	stale := encode(t, vescproto.CmdPrint, []byte("old"))
	response := encode(t, vescproto.CmdAlive, []byte{1})

	transport := &scriptTransport{script: [][]byte{response}}
	client := NewClient(transport)

	// Leftover bytes from a previous exchange must not satisfy a new request.
	client.Decoder().Write(stale)
	frame, err := client.Request(vescproto.CmdAlive, nil, time.Second)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if frame.Command() != vescproto.CmdAlive {
		t.Errorf("stale frame returned as response (command 0x%02X)", frame.Command())
	}
}
