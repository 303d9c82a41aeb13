// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openvesc/vescli/pkg/vesclient"
	"github.com/openvesc/vescli/pkg/vescproto"
)

var (
	versionTimeout int
)

var fwVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Query the device firmware version",
	Long: `Send COMM_FW_VERSION and print the decoded response.

Shows the firmware major/minor version and the hardware name reported by the
device.`,
	RunE: runFwVersion,
}

func init() {
	rootCmd.AddCommand(fwVersionCmd)
	fwVersionCmd.Flags().IntVar(&versionTimeout, "timeout", 5, "Timeout in seconds to wait for a response")
}

func runFwVersion(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	client := vesclient.NewClient(conn)

	frame, err := client.Request(vescproto.CmdFwVersion, nil, time.Duration(versionTimeout)*time.Second)
	if err != nil {
		return fmt.Errorf("version query failed: %w", err)
	}

	version, err := vescproto.DecodeFwVersion(frame.Payload())
	if err != nil {
		return fmt.Errorf("malformed version response: %w", err)
	}

	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Firmware:   %d.%d\n", version.Major, version.Minor)
	fmt.Printf("Hardware:   %s\n", version.HwName)
	return nil
}
