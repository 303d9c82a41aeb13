// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package vescproto

import (
	"strings"
	"testing"
)

func TestCommandName(t *testing.T) {
	if got := CommandName(CmdAlive); got != "COMM_ALIVE" {
		t.Errorf("CommandName(CmdAlive) = %q", got)
	}
	if got := CommandName(CmdWriteNewAppData); got != "COMM_WRITE_NEW_APP_DATA" {
		t.Errorf("CommandName(CmdWriteNewAppData) = %q", got)
	}
	if got := CommandName(200); got != "UNKNOWN" {
		t.Errorf("CommandName(200) = %q", got)
	}
}

func TestDecodeFwVersion(t *testing.T) {
	payload := []byte{6, 2, 'V', 'E', 'S', 'C', ' ', 'E', 'x', 'p', 'r', 'e', 's', 's', 0, 0xAA, 0xBB}
	v, err := DecodeFwVersion(payload)
	if err != nil {
		t.Fatalf("DecodeFwVersion failed: %v", err)
	}
	if v.Major != 6 || v.Minor != 2 {
		t.Errorf("version %d.%d, want 6.2", v.Major, v.Minor)
	}
	if v.HwName != "VESC Express" {
		t.Errorf("hw name %q", v.HwName)
	}

	if _, err := DecodeFwVersion([]byte{6}); err == nil {
		t.Error("expected error for short payload")
	}
}

func TestDecodePrint(t *testing.T) {
	if got := DecodePrint([]byte("fault: none\r\n\x00")); got != "fault: none" {
		t.Errorf("DecodePrint = %q", got)
	}
}

func TestFormatFrame(t *testing.T) {
	f := NewFrame(CmdPrint, []byte("hello"))
	out := FormatFrame(f)
	if !strings.Contains(out, "COMM_PRINT") || !strings.Contains(out, "hello") {
		t.Errorf("FormatFrame output missing fields:\n%s", out)
	}
}
