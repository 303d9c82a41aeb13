// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package updater

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/openvesc/vescli/pkg/vesclient"
	"github.com/openvesc/vescli/pkg/vescproto"
)

// fakeDevice simulates the firmware side of the protocol: it decodes frames
// written to it and queues acknowledgement frames for the next Receive.
type fakeDevice struct {
	decoder  *vescproto.Decoder
	out      bytes.Buffer
	commands vescproto.Commands

	// behavior knobs
	rejectErase   bool
	failFromChunk int // 0-based chunk index to stop acknowledging at, -1 disables

	// recorded state
	eraseSize  uint32
	offsets    []uint32
	written    []byte
	chunksSeen int
	gotJump    bool
	closed     bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		decoder:       vescproto.NewDecoder(),
		commands:      vescproto.DefaultCommands(),
		failFromChunk: -1,
	}
}

func (d *fakeDevice) Send(p []byte) error {
	d.decoder.Write(p)
	for {
		f, err := d.decoder.Next()
		if err != nil {
			continue
		}
		if f == nil {
			return nil
		}
		d.handle(f)
	}
}

func (d *fakeDevice) handle(f *vescproto.Frame) {
	switch f.Command() {
	case d.commands.EraseNewApp:
		d.eraseSize = binary.BigEndian.Uint32(f.Payload())
		if d.rejectErase {
			d.respond(f.Command(), []byte{0})
		} else {
			d.respond(f.Command(), []byte{1})
		}

	case d.commands.WriteNewAppData:
		index := d.chunksSeen
		d.chunksSeen++
		if d.failFromChunk >= 0 && index >= d.failFromChunk {
			return // swallow the chunk, let the client time out
		}
		d.offsets = append(d.offsets, binary.BigEndian.Uint32(f.Payload()[:4]))
		d.written = append(d.written, f.Payload()[4:]...)
		d.respond(f.Command(), []byte{1})

	case d.commands.JumpToBootloader:
		d.gotJump = true // device reboots, no response

	case d.commands.Alive:
		d.respond(f.Command(), []byte{1})
	}
}

func (d *fakeDevice) respond(command uint8, payload []byte) {
	frame, err := vescproto.Encode(command, payload)
	if err != nil {
		panic(err)
	}
	d.out.Write(frame)
}

func (d *fakeDevice) Receive(timeout time.Duration) ([]byte, error) {
	if d.out.Len() == 0 {
		return nil, nil
	}
	data := append([]byte(nil), d.out.Bytes()...)
	d.out.Reset()
	return data, nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func testFirmware(size int) []byte {
	fw := make([]byte, size)
	for i := range fw {
		fw[i] = byte(i * 31)
	}
	return fw
}

// fastOptions shrink all the waiting so tests run quickly.
func fastOptions(extra ...Option) []Option {
	opts := []Option{
		WithChunkTimeout(200 * time.Millisecond),
		WithEraseTimeout(200 * time.Millisecond),
		WithRebootSettle(10 * time.Millisecond),
		WithVerifyDelay(time.Millisecond),
		WithVerifyTimeout(100 * time.Millisecond),
		WithVerifyAttempts(2),
	}
	return append(opts, extra...)
}

func TestRun_Success(t *testing.T) {
	device := newFakeDevice()
	firmware := testFirmware(1000) // 256+256+256+232 with the default chunking

	var progress []Progress
	u := New(device, func() (vesclient.Transport, error) { return newFakeDevice(), nil },
		fastOptions(WithProgressCallback(func(p Progress) {
			progress = append(progress, p)
		}))...)

	if err := u.Run(context.Background(), firmware); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !bytes.Equal(device.written, firmware) {
		t.Error("streamed bytes differ from the firmware image")
	}
	if device.eraseSize != uint32(len(firmware))+6 {
		t.Errorf("erase size %d, want %d", device.eraseSize, len(firmware)+6)
	}
	if !device.gotJump {
		t.Error("jump-to-bootloader never sent")
	}
	if !device.closed {
		t.Error("transport not closed before verification")
	}

	// Offsets must visit exactly ceil(S/C) increasing values.
	wantOffsets := []uint32{0, 256, 512, 768}
	if len(device.offsets) != len(wantOffsets) {
		t.Fatalf("%d chunks sent, want %d", len(device.offsets), len(wantOffsets))
	}
	for i, want := range wantOffsets {
		if device.offsets[i] != want {
			t.Errorf("chunk %d offset %d, want %d", i, device.offsets[i], want)
		}
	}

	// Progress after every acknowledged chunk, monotonically increasing,
	// ending at the full image size.
	var streamed []int
	for _, p := range progress {
		if p.Step == StepStream {
			streamed = append(streamed, p.BytesSent)
		}
	}
	if len(streamed) != 4 {
		t.Fatalf("%d stream progress events, want 4", len(streamed))
	}
	for i := 1; i < len(streamed); i++ {
		if streamed[i] <= streamed[i-1] {
			t.Errorf("progress not monotonic: %v", streamed)
		}
	}
	if streamed[len(streamed)-1] != len(firmware) {
		t.Errorf("final progress %d, want %d", streamed[len(streamed)-1], len(firmware))
	}
	if last := progress[len(progress)-1]; last.Step != StepComplete {
		t.Errorf("final progress step %q, want %q", last.Step, StepComplete)
	}
}

func TestRun_ChunkFailureReportsOffset(t *testing.T) {
	device := newFakeDevice()
	device.failFromChunk = 2 // third chunk goes unacknowledged

	firmware := testFirmware(1000)
	u := New(device, nil, fastOptions()...)

	err := u.Run(context.Background(), firmware)
	if err == nil {
		t.Fatal("expected failure")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %T: %v", err, err)
	}
	if stepErr.Step != StepStream {
		t.Errorf("failed step %q, want %q", stepErr.Step, StepStream)
	}
	// Offset equals the sum of the acknowledged chunk lengths.
	if stepErr.Offset != 512 {
		t.Errorf("failure offset %d, want 512", stepErr.Offset)
	}
	if !errors.Is(err, vesclient.ErrTimeout) {
		t.Errorf("underlying error should be a timeout, got %v", stepErr.Err)
	}

	// No further chunks after the failed one.
	if device.chunksSeen != 3 {
		t.Errorf("%d chunks seen, want 3 (two acked + one failed)", device.chunksSeen)
	}
	if device.gotJump {
		t.Error("jump-to-bootloader sent after a failed transfer")
	}
}

func TestRun_EraseRejected(t *testing.T) {
	device := newFakeDevice()
	device.rejectErase = true

	u := New(device, nil, fastOptions()...)
	err := u.Run(context.Background(), testFirmware(300))

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != StepErase {
		t.Errorf("failed step %q, want %q", stepErr.Step, StepErase)
	}
	if !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", stepErr.Err)
	}
	if device.chunksSeen != 0 {
		t.Errorf("%d chunks sent after a rejected erase", device.chunksSeen)
	}
}

func TestRun_CancelledBetweenChunks(t *testing.T) {
	device := newFakeDevice()
	firmware := testFirmware(1000)

	ctx, cancel := context.WithCancel(context.Background())
	u := New(device, nil, fastOptions(WithProgressCallback(func(p Progress) {
		if p.Step == StepStream {
			cancel() // cancel as soon as the first chunk is acknowledged
		}
	}))...)

	err := u.Run(ctx, firmware)

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != StepStream {
		t.Errorf("failed step %q, want %q", stepErr.Step, StepStream)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", stepErr.Err)
	}
	if device.chunksSeen != 1 {
		t.Errorf("%d chunks seen after cancellation, want 1", device.chunksSeen)
	}
}

func TestRun_VerificationFailure(t *testing.T) {
	device := newFakeDevice()
	dialErr := errors.New("connection refused")

	u := New(device, func() (vesclient.Transport, error) { return nil, dialErr },
		fastOptions()...)

	err := u.Run(context.Background(), testFirmware(300))

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if stepErr.Step != StepVerify {
		t.Errorf("failed step %q, want %q", stepErr.Step, StepVerify)
	}
	if !errors.Is(err, dialErr) {
		t.Errorf("expected wrapped dial error, got %v", stepErr.Err)
	}
	// The image itself was fully delivered before verification failed.
	if !bytes.Equal(device.written, testFirmware(300)) {
		t.Error("firmware not fully streamed before verification")
	}
}

func TestRun_NoDialerSkipsVerification(t *testing.T) {
	device := newFakeDevice()

	u := New(device, nil, fastOptions()...)
	if err := u.Run(context.Background(), testFirmware(100)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !device.gotJump {
		t.Error("jump-to-bootloader never sent")
	}
}

func TestRun_EmptyFirmware(t *testing.T) {
	u := New(newFakeDevice(), nil)
	if err := u.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty firmware image")
	}
}

func TestRun_CustomChunkSize(t *testing.T) {
	device := newFakeDevice()
	firmware := testFirmware(100)

	u := New(device, nil, fastOptions(WithChunkSize(32))...)
	if err := u.Run(context.Background(), firmware); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(device.offsets) != 4 { // 32+32+32+4
		t.Errorf("%d chunks, want 4", len(device.offsets))
	}
	if !bytes.Equal(device.written, firmware) {
		t.Error("streamed bytes differ from the firmware image")
	}
}
