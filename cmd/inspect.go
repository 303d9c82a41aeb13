// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/openvesc/vescli/pkg/capture"
	"github.com/openvesc/vescli/pkg/vescproto"
)

var (
	inspectCommandFilter int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <capture-file>",
	Short: "Replay a capture file in human-readable format",
	Long: `Read a capture file written by 'monitor --capture' and print each
recorded frame with its timestamp, direction, command name, and decoded
payload.

A capture truncated by an interrupted session is replayed up to the last
complete record.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectCommandFilter, "command", -1, "Only show frames with this command ID")
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	reader := capture.NewReader(f)
	count := 0
	shown := 0

	for {
		rec, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				fmt.Fprintf(os.Stderr, "Capture truncated after %d records\n", count)
				break
			}
			return fmt.Errorf("failed to read record %d: %w", count, err)
		}
		count++

		if inspectCommandFilter >= 0 && int(rec.Command) != inspectCommandFilter {
			continue
		}
		shown++

		timestamp := rec.Timestamp.Format("15:04:05.000")
		name := vescproto.CommandName(rec.Command)
		fmt.Printf("[%s] %s %s (0x%02X) len=%d\n", timestamp, rec.Direction, name, rec.Command, len(rec.Payload))
		if len(rec.Payload) > 0 {
			fmt.Print(vescproto.FormatPayload(rec.Command, rec.Payload))
		}
	}

	fmt.Printf("\n%d records", count)
	if shown != count {
		fmt.Printf(" (%d shown)", shown)
	}
	fmt.Println()
	return nil
}
