// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 OpenVESC contributors

package vescproto

import (
	"bytes"
	"fmt"
)

// CommandName returns the stock firmware name for a command identifier.
func CommandName(command uint8) string {
	switch command {
	case CmdFwVersion:
		return "COMM_FW_VERSION"
	case CmdJumpToBootloader:
		return "COMM_JUMP_TO_BOOTLOADER"
	case CmdEraseNewApp:
		return "COMM_ERASE_NEW_APP"
	case CmdWriteNewAppData:
		return "COMM_WRITE_NEW_APP_DATA"
	case CmdGetValues:
		return "COMM_GET_VALUES"
	case CmdSetDuty:
		return "COMM_SET_DUTY"
	case CmdSetCurrent:
		return "COMM_SET_CURRENT"
	case CmdSetCurrentBrake:
		return "COMM_SET_CURRENT_BRAKE"
	case CmdSetRPM:
		return "COMM_SET_RPM"
	case CmdSetPos:
		return "COMM_SET_POS"
	case CmdSetHandbrake:
		return "COMM_SET_HANDBRAKE"
	case CmdSetDetect:
		return "COMM_SET_DETECT"
	case CmdSetServoPos:
		return "COMM_SET_SERVO_POS"
	case CmdSetMcconf:
		return "COMM_SET_MCCONF"
	case CmdGetMcconf:
		return "COMM_GET_MCCONF"
	case CmdGetMcconfDefault:
		return "COMM_GET_MCCONF_DEFAULT"
	case CmdSetAppconf:
		return "COMM_SET_APPCONF"
	case CmdGetAppconf:
		return "COMM_GET_APPCONF"
	case CmdGetAppconfDef:
		return "COMM_GET_APPCONF_DEFAULT"
	case CmdSamplePrint:
		return "COMM_SAMPLE_PRINT"
	case CmdTerminalCmd:
		return "COMM_TERMINAL_CMD"
	case CmdPrint:
		return "COMM_PRINT"
	case CmdRotorPosition:
		return "COMM_ROTOR_POSITION"
	case CmdExperimentSample:
		return "COMM_EXPERIMENT_SAMPLE"
	case CmdDetectMotorParam:
		return "COMM_DETECT_MOTOR_PARAM"
	case CmdDetectMotorRL:
		return "COMM_DETECT_MOTOR_R_L"
	case CmdDetectMotorFlux:
		return "COMM_DETECT_MOTOR_FLUX_LINKAGE"
	case CmdDetectEncoder:
		return "COMM_DETECT_ENCODER"
	case CmdDetectHallFOC:
		return "COMM_DETECT_HALL_FOC"
	case CmdReboot:
		return "COMM_REBOOT"
	case CmdAlive:
		return "COMM_ALIVE"
	case CmdGetDecodedPPM:
		return "COMM_GET_DECODED_PPM"
	case CmdGetDecodedADC:
		return "COMM_GET_DECODED_ADC"
	case CmdGetDecodedChuk:
		return "COMM_GET_DECODED_CHUK"
	case CmdForwardCAN:
		return "COMM_FORWARD_CAN"
	case CmdSetChuckData:
		return "COMM_SET_CHUCK_DATA"
	case CmdCustomAppData:
		return "COMM_CUSTOM_APP_DATA"
	case CmdNRFStartPairing:
		return "COMM_NRF_START_PAIRING"
	default:
		return "UNKNOWN"
	}
}

// FormatFrame formats a frame into a human-readable string: timestamp,
// command name and a decoded or hex-dumped payload.
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp().Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n",
		timestamp, CommandName(f.Command()), f.Command(), len(f.Payload()))

	if len(f.Payload()) > 0 {
		result += FormatPayload(f.Command(), f.Payload())
	}

	return result
}

// FormatPayload formats the payload based on the command.
func FormatPayload(command uint8, payload []byte) string {
	switch command {
	case CmdPrint:
		return fmt.Sprintf("  %s\n", DecodePrint(payload))

	case CmdFwVersion:
		if v, err := DecodeFwVersion(payload); err == nil {
			return fmt.Sprintf("  Firmware %d.%d on %q\n", v.Major, v.Minor, v.HwName)
		}
	}

	// Default: hex dump
	result := "  Payload: "
	for i, b := range payload {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", b)
	}
	return result + "\n"
}

// FwVersion is the decoded COMM_FW_VERSION response.
type FwVersion struct {
	Major  uint8
	Minor  uint8
	HwName string
}

// DecodeFwVersion parses a COMM_FW_VERSION response payload: major and minor
// version bytes followed by a NUL-terminated hardware name. Trailing fields
// (UUID, pairing flags) vary by firmware and are ignored.
func DecodeFwVersion(payload []byte) (FwVersion, error) {
	if len(payload) < 2 {
		return FwVersion{}, fmt.Errorf("fw version payload too short: %d bytes", len(payload))
	}

	v := FwVersion{Major: payload[0], Minor: payload[1]}
	rest := payload[2:]
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		v.HwName = string(rest[:i])
	} else {
		v.HwName = string(rest)
	}
	return v, nil
}

// DecodePrint parses a COMM_PRINT payload into printable text.
func DecodePrint(payload []byte) string {
	return string(bytes.TrimRight(payload, "\x00\r\n"))
}
