// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

// Package updater orchestrates chunked firmware updates over the VESC
// protocol: erase the new-app partition, stream the image in offset-tagged
// chunks, reboot the device, then reconnect and verify it came back.
package updater

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/openvesc/vescli/pkg/vesclient"
	"github.com/openvesc/vescli/pkg/vescproto"
)

// Updater runs one firmware update attempt over a connected transport.
//
// A single timeout or rejection on any step is terminal for the attempt; the
// updater never retries a failed chunk or resumes a partial transfer. Callers
// re-run the whole update to retry. An Updater must not be shared between
// concurrent updates.
type Updater struct {
	transport vesclient.Transport
	dial      vesclient.Dialer
	config    Config
}

// New creates an Updater on a connected transport. dial is used to
// re-establish a connection for post-reboot verification; if nil, the
// verification step is skipped and the update ends after the reboot command.
func New(transport vesclient.Transport, dial vesclient.Dialer, opts ...Option) *Updater {
	if transport == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Updater{
		transport: transport,
		dial:      dial,
		config:    cfg,
	}
}

// Run performs the complete update sequence:
//  1. Erase the new-app partition (sized for the image plus trailer bytes)
//  2. Stream the image in offset-tagged chunks, tracking acknowledgements
//  3. Send jump-to-bootloader without waiting for a response
//  4. Wait out the reboot, then reconnect and ping until the device answers
//
// Cancellation via ctx is cooperative and takes effect between chunks; there
// is no mid-chunk cancellation.
func (u *Updater) Run(ctx context.Context, firmware []byte) error {
	if len(firmware) == 0 {
		return fmt.Errorf("firmware image is empty")
	}
	if len(firmware) > vescproto.MaxBody {
		return fmt.Errorf("firmware image too large: %d bytes", len(firmware))
	}

	start := time.Now()
	client := vesclient.NewClient(u.transport)
	total := uint32(len(firmware))

	// Erase
	u.report(Progress{Step: StepErase, TotalBytes: len(firmware)})
	u.logInfo("erasing new app partition", "size", total, "trailer", u.config.EraseSizeTrailer)

	if err := u.erase(client, total); err != nil {
		return &StepError{Step: StepErase, Err: err}
	}

	// Stream
	var sent uint32
	for sent < total {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: StepStream, Offset: sent, Err: err}
		}

		end := sent + uint32(u.config.ChunkSize)
		if end > total {
			end = total
		}
		chunk := firmware[sent:end]

		if err := u.writeChunk(client, sent, chunk); err != nil {
			return &StepError{Step: StepStream, Offset: sent, Err: err}
		}

		sent += uint32(len(chunk))
		u.report(Progress{
			Step:       StepStream,
			BytesSent:  int(sent),
			TotalBytes: len(firmware),
			Percentage: float64(sent) * 100.0 / float64(total),
			Elapsed:    time.Since(start),
		})
	}

	u.logInfo("firmware streamed", "bytes", sent, "elapsed", time.Since(start).String())

	// Finalize: the device restarts into the new image and drops the
	// connection, so no response is expected here.
	u.report(Progress{Step: StepFinalize, BytesSent: int(sent), TotalBytes: len(firmware), Percentage: 100, Elapsed: time.Since(start)})
	if err := client.Send(u.config.Commands.JumpToBootloader, nil); err != nil {
		return &StepError{Step: StepFinalize, Offset: sent, Err: err}
	}
	u.transport.Close()

	if u.dial == nil {
		u.logInfo("no dialer configured, skipping post-update verification")
		u.report(Progress{Step: StepComplete, BytesSent: int(sent), TotalBytes: len(firmware), Percentage: 100, Elapsed: time.Since(start)})
		return nil
	}

	// Verify
	u.report(Progress{Step: StepVerify, BytesSent: int(sent), TotalBytes: len(firmware), Percentage: 100, Elapsed: time.Since(start)})
	u.logInfo("waiting for device to restart", "settle", u.config.RebootSettle.String())

	select {
	case <-ctx.Done():
		return &StepError{Step: StepVerify, Offset: sent, Err: ctx.Err()}
	case <-time.After(u.config.RebootSettle):
	}

	err := retry.Do(
		func() error { return u.ping() },
		retry.Context(ctx),
		retry.Attempts(u.config.VerifyAttempts),
		retry.Delay(u.config.VerifyDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			u.logDebug("verification attempt failed", "attempt", n+1, "error", err.Error())
		}),
	)
	if err != nil {
		return &StepError{Step: StepVerify, Offset: sent, Err: fmt.Errorf("post-update verification failed: %w", err)}
	}

	u.report(Progress{Step: StepComplete, BytesSent: int(sent), TotalBytes: len(firmware), Percentage: 100, Elapsed: time.Since(start)})
	u.logInfo("update complete", "bytes", sent, "elapsed", time.Since(start).String())
	return nil
}

// erase issues the erase-new-app command. The payload is the image size plus
// the configured trailer bytes, big-endian.
func (u *Updater) erase(client *vesclient.Client, total uint32) error {
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], total+u.config.EraseSizeTrailer)

	resp, err := client.Request(u.config.Commands.EraseNewApp, payload[:], u.config.EraseTimeout)
	if err != nil {
		return err
	}
	return checkAck(resp, u.config.Commands.EraseNewApp)
}

// writeChunk issues one write-new-app-data command: a big-endian offset
// followed by the chunk bytes.
func (u *Updater) writeChunk(client *vesclient.Client, offset uint32, chunk []byte) error {
	payload := make([]byte, 4+len(chunk))
	binary.BigEndian.PutUint32(payload, offset)
	copy(payload[4:], chunk)

	resp, err := client.Request(u.config.Commands.WriteNewAppData, payload, u.config.ChunkTimeout)
	if err != nil {
		return err
	}
	return checkAck(resp, u.config.Commands.WriteNewAppData)
}

// ping re-establishes a transport and issues one liveness command.
func (u *Updater) ping() error {
	transport, err := u.dial()
	if err != nil {
		return err
	}
	defer transport.Close()

	client := vesclient.NewClient(transport)
	_, err = client.Request(u.config.Commands.Alive, nil, u.config.VerifyTimeout)
	return err
}

// checkAck validates that a response echoes the request command and carries
// a success status byte. "Got some bytes back" is not the same thing as "got
// a valid response": a missing or zero status is a rejection.
func checkAck(resp *vescproto.Frame, command uint8) error {
	if resp.Command() != command {
		return fmt.Errorf("unexpected response command 0x%02X (want 0x%02X)", resp.Command(), command)
	}
	payload := resp.Payload()
	if len(payload) < 1 || payload[0] == 0 {
		return ErrRejected
	}
	return nil
}

func (u *Updater) report(p Progress) {
	if u.config.ProgressCallback != nil {
		u.config.ProgressCallback(p)
	}
}

func (u *Updater) logDebug(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (u *Updater) logInfo(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Info(msg, keysAndValues...)
	}
}
