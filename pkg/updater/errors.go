// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package updater

import (
	"errors"
	"fmt"
)

// ErrRejected reports that the device answered a request with a failure
// status byte. The device is reachable; it refused the operation.
var ErrRejected = errors.New("device rejected the request")

// StepError reports which update step failed and the byte offset the
// transfer had reached. A caller can use the offset to decide whether to
// restart; the updater never resumes a partial transfer on its own.
type StepError struct {
	Step   Step
	Offset uint32
	Err    error
}

func (e *StepError) Error() string {
	if e.Step == StepStream {
		return fmt.Sprintf("update failed during %s at offset %d: %v", e.Step, e.Offset, e.Err)
	}
	return fmt.Sprintf("update failed during %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
