// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openvesc/vescli/pkg/vesclient"
	"github.com/openvesc/vescli/pkg/vescproto"
)

var (
	pingTimeout int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test connection with a liveness command",
	Long: `Send an ALIVE command and wait for the acknowledgement.

This command connects to the device, sends COMM_ALIVE, and waits for a valid
response frame. Garbage and corrupt frames on the line are skipped.

Exit codes:
  0 - Device answered before timeout
  1 - Timeout reached without a valid response
  2 - Connection error

Useful for checking connectivity to a VESC Express or a WebSocket bridge.`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds to wait for a response")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("vescli - Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n\n", pingTimeout)

	client := vesclient.NewClient(conn)
	start := time.Now()

	frame, err := client.Request(vescproto.CmdAlive, nil, time.Duration(pingTimeout)*time.Second)
	if err != nil {
		if errors.Is(err, vesclient.ErrTimeout) {
			fmt.Fprintf(os.Stderr, "TIMEOUT: No valid response within %d seconds\n", pingTimeout)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Transport error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("SUCCESS: Device answered in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  Command: %s (0x%02X)\n", vescproto.CommandName(frame.Command()), frame.Command())
	fmt.Printf("  Payload: %d bytes\n", len(frame.Payload()))
	os.Exit(0)

	return nil
}
