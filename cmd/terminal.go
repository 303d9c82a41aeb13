// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openvesc/vescli/pkg/vesclient"
	"github.com/openvesc/vescli/pkg/vescproto"
)

var (
	terminalTimeout int
)

var terminalCmd = &cobra.Command{
	Use:   "term <command...>",
	Short: "Run a terminal command on the device",
	Long: `Send a COMM_TERMINAL_CMD string and print the COMM_PRINT responses.

The device may answer with zero or more print frames. Output is collected
until no further frames arrive within the timeout.

Examples:
  vescli --host 192.168.5.107 term ps
  vescli --port /dev/ttyACM0 term can_scan`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTerminal,
}

func init() {
	rootCmd.AddCommand(terminalCmd)
	terminalCmd.Flags().IntVar(&terminalTimeout, "timeout", 2, "Seconds to wait for further output")
}

func runTerminal(cmd *cobra.Command, args []string) error {
	conn, _, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	client := vesclient.NewClient(conn)
	command := strings.Join(args, " ")

	if err := client.Send(vescproto.CmdTerminalCmd, []byte(command)); err != nil {
		return fmt.Errorf("failed to send terminal command: %w", err)
	}

	// Collect print frames until the device goes quiet
	timeout := time.Duration(terminalTimeout) * time.Second
	got := false
	for {
		frame, err := client.Await(timeout)
		if err != nil {
			if errors.Is(err, vesclient.ErrTimeout) {
				if !got {
					return fmt.Errorf("no output within %d seconds", terminalTimeout)
				}
				return nil
			}
			return err
		}

		if frame.Command() != vescproto.CmdPrint {
			continue
		}
		got = true
		fmt.Println(vescproto.DecodePrint(frame.Payload()))
	}
}
