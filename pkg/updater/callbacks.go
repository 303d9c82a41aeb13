// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package updater

import "time"

// Step identifies a phase of the firmware update state machine.
type Step string

// Update steps, in the order they run.
const (
	StepErase    Step = "erase"
	StepStream   Step = "stream"
	StepFinalize Step = "finalize"
	StepVerify   Step = "verify"
	StepComplete Step = "complete"
)

// Progress describes how far an update has come. It is emitted after every
// acknowledged chunk and at each step transition.
type Progress struct {
	// Step is the phase currently running.
	Step Step

	// BytesSent is the number of firmware bytes acknowledged so far.
	BytesSent int

	// TotalBytes is the firmware image size.
	TotalBytes int

	// Percentage is BytesSent over TotalBytes (0.0 to 100.0).
	Percentage float64

	// Elapsed is the time since the update started.
	Elapsed time.Duration
}

// ProgressCallback receives progress events. Implementations should return
// quickly; the update blocks while the callback runs.
type ProgressCallback func(Progress)

// Logger is an optional logging interface so the updater can integrate with
// any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
