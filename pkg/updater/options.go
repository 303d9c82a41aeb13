// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package updater

import (
	"time"

	"github.com/openvesc/vescli/pkg/vescproto"
)

// Config holds the updater configuration.
type Config struct {
	// Commands names the identifiers this firmware build expects.
	Commands vescproto.Commands

	// ChunkSize is the number of firmware bytes per write command.
	ChunkSize int

	// EraseTimeout bounds the erase transaction. Erasing a large partition
	// takes several seconds on the device.
	EraseTimeout time.Duration

	// ChunkTimeout bounds each write-chunk transaction.
	ChunkTimeout time.Duration

	// RebootSettle is how long to wait after jump-to-bootloader before
	// trying to reconnect. This is policy, not protocol: it depends on how
	// long the device takes to restart.
	RebootSettle time.Duration

	// VerifyAttempts is the number of reconnect-and-ping attempts after the
	// settle interval.
	VerifyAttempts uint

	// VerifyDelay is the pause between verification attempts.
	VerifyDelay time.Duration

	// VerifyTimeout bounds each liveness ping.
	VerifyTimeout time.Duration

	// EraseSizeTrailer is added to the firmware size in the erase payload.
	// Stock firmware accounts for 6 trailer bytes of size/crc metadata, but
	// the convention varies between builds; confirm against the device.
	EraseSizeTrailer uint32

	// ProgressCallback is called during the update to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Commands:         vescproto.DefaultCommands(),
		ChunkSize:        256,
		EraseTimeout:     20 * time.Second,
		ChunkTimeout:     5 * time.Second,
		RebootSettle:     15 * time.Second,
		VerifyAttempts:   5,
		VerifyDelay:      2 * time.Second,
		VerifyTimeout:    5 * time.Second,
		EraseSizeTrailer: 6,
	}
}

// Option is a functional option for configuring the Updater.
type Option func(*Config)

// WithCommands overrides the command identifiers for firmware builds that
// renumber the command space.
func WithCommands(commands vescproto.Commands) Option {
	return func(c *Config) {
		c.Commands = commands
	}
}

// WithChunkSize sets the number of firmware bytes per write command.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ChunkSize = size
		}
	}
}

// WithEraseTimeout bounds the erase transaction.
func WithEraseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.EraseTimeout = timeout
	}
}

// WithChunkTimeout bounds each write-chunk transaction.
func WithChunkTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ChunkTimeout = timeout
	}
}

// WithRebootSettle sets how long to wait for the device to restart before
// attempting verification.
func WithRebootSettle(settle time.Duration) Option {
	return func(c *Config) {
		c.RebootSettle = settle
	}
}

// WithVerifyAttempts sets the number of reconnect-and-ping attempts during
// post-update verification.
func WithVerifyAttempts(attempts uint) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.VerifyAttempts = attempts
		}
	}
}

// WithVerifyDelay sets the pause between verification attempts.
func WithVerifyDelay(delay time.Duration) Option {
	return func(c *Config) {
		c.VerifyDelay = delay
	}
}

// WithVerifyTimeout bounds each liveness ping during verification.
func WithVerifyTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.VerifyTimeout = timeout
	}
}

// WithEraseSizeTrailer sets the byte count added to the firmware size in the
// erase payload. Confirm the value against the target firmware build.
func WithEraseSizeTrailer(trailer uint32) Option {
	return func(c *Config) {
		c.EraseSizeTrailer = trailer
	}
}

// WithProgressCallback sets a callback function to track update progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for updater operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
