// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

// Package vescproto implements the VESC binary link-layer protocol: a
// length-prefixed, CRC16-protected framing format carried over TCP, serial
// or BLE transports.
//
// Wire format:
//
//	[start:1][length:1-3][command:1][payload:N][crc:2][end:1]
//
// The start marker selects the width of the big-endian length field, the
// CRC covers command+payload only, and the end marker is always 0x03.
package vescproto

// Protocol framing bytes. The start marker encodes the length field width.
const (
	StartShort  = 0x02 // 1-byte length, body <= 255
	StartMedium = 0x03 // 2-byte big-endian length, body <= 65535
	StartLong   = 0x04 // 3-byte big-endian length, body <= 16777215
	EndByte     = 0x03
)

// Body size limits per start marker. The body is command byte + payload.
const (
	MaxShortBody  = 0xFF
	MaxMediumBody = 0xFFFF
	MaxBody       = 0xFFFFFF
)

// minFrameLen is the smallest span worth inspecting: a short-frame header
// plus the first bytes of body and trailer.
const minFrameLen = 4

// CRC-16/XMODEM configuration. The firmware uses the identical bit-serial
// algorithm; both sides must match bit for bit.
const (
	crcPolynomial = 0x1021
	crcInitial    = 0x0000
)

// Command identifiers, as numbered by the stock VESC firmware. This is a
// subset of an open enumeration owned by the firmware: custom builds may
// renumber it, which is why the OTA layer takes a Commands value instead of
// using these constants directly.
const (
	CmdFwVersion        = 0
	CmdJumpToBootloader = 1
	CmdEraseNewApp      = 2
	CmdWriteNewAppData  = 3
	CmdGetValues        = 4
	CmdSetDuty          = 5
	CmdSetCurrent       = 6
	CmdSetCurrentBrake  = 7
	CmdSetRPM           = 8
	CmdSetPos           = 9
	CmdSetHandbrake     = 10
	CmdSetDetect        = 11
	CmdSetServoPos      = 12
	CmdSetMcconf        = 13
	CmdGetMcconf        = 14
	CmdGetMcconfDefault = 15
	CmdSetAppconf       = 16
	CmdGetAppconf       = 17
	CmdGetAppconfDef    = 18
	CmdSamplePrint      = 19
	CmdTerminalCmd      = 20
	CmdPrint            = 21
	CmdRotorPosition    = 22
	CmdExperimentSample = 23
	CmdDetectMotorParam = 24
	CmdDetectMotorRL    = 25
	CmdDetectMotorFlux  = 26
	CmdDetectEncoder    = 27
	CmdDetectHallFOC    = 28
	CmdReboot           = 29
	CmdAlive            = 30
	CmdGetDecodedPPM    = 31
	CmdGetDecodedADC    = 32
	CmdGetDecodedChuk   = 33
	CmdForwardCAN       = 34
	CmdSetChuckData     = 35
	CmdCustomAppData    = 36
	CmdNRFStartPairing  = 37
)

// Commands names the identifiers the transaction and OTA layers send. The
// values are a firmware contract, not a protocol constant, so callers talking
// to a renumbered firmware can substitute their own set.
type Commands struct {
	FwVersion        uint8
	JumpToBootloader uint8
	EraseNewApp      uint8
	WriteNewAppData  uint8
	TerminalCmd      uint8
	Print            uint8
	Reboot           uint8
	Alive            uint8
}

// DefaultCommands returns the identifiers used by stock VESC firmware.
func DefaultCommands() Commands {
	return Commands{
		FwVersion:        CmdFwVersion,
		JumpToBootloader: CmdJumpToBootloader,
		EraseNewApp:      CmdEraseNewApp,
		WriteNewAppData:  CmdWriteNewAppData,
		TerminalCmd:      CmdTerminalCmd,
		Print:            CmdPrint,
		Reboot:           CmdReboot,
		Alive:            CmdAlive,
	}
}
