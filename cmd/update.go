// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/openvesc/vescli/pkg/updater"
)

var (
	updateChunkSize      int
	updateSettle         int
	updateEraseTimeout   int
	updateVerifyAttempts uint
	updateNoVerify       bool
)

var updateCmd = &cobra.Command{
	Use:   "update <firmware.bin>",
	Short: "Flash a firmware image over the air",
	Long: `Perform a chunked over-the-air firmware update.

The device erases its new-app partition, receives the image in offset-tagged
chunks, and reboots into the bootloader to apply it. After the reboot settle
time, the connection is re-established and the device is pinged to verify it
came back up.

A failed update leaves the running firmware untouched; the device only
switches images after a complete transfer. Re-run the command to retry.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().IntVar(&updateChunkSize, "chunk-size", 256, "Chunk size in bytes")
	updateCmd.Flags().IntVar(&updateSettle, "settle", 15, "Seconds to wait for the device to reboot")
	updateCmd.Flags().IntVar(&updateEraseTimeout, "erase-timeout", 20, "Seconds to wait for the erase acknowledgement")
	updateCmd.Flags().UintVar(&updateVerifyAttempts, "verify-attempts", 5, "Reconnection attempts after reboot")
	updateCmd.Flags().BoolVar(&updateNoVerify, "no-verify", false, "Skip post-update reconnection check")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	firmware, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read firmware image: %w", err)
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("vescli - Firmware Update\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Image: %s (%d bytes)\n\n", args[0], len(firmware))

	bar := progressbar.NewOptions(len(firmware),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Flashing"),
		progressbar.OptionShowBytes(true),
	)

	opts := []updater.Option{
		updater.WithChunkSize(updateChunkSize),
		updater.WithRebootSettle(time.Duration(updateSettle) * time.Second),
		updater.WithEraseTimeout(time.Duration(updateEraseTimeout) * time.Second),
		updater.WithVerifyAttempts(updateVerifyAttempts),
		updater.WithProgressCallback(func(p updater.Progress) {
			switch p.Step {
			case updater.StepStream:
				bar.Set(p.BytesSent)
			case updater.StepFinalize:
				bar.Finish()
				fmt.Printf("\nRebooting device...\n")
			case updater.StepVerify:
				fmt.Printf("Waiting %ds for restart, then verifying...\n", updateSettle)
			}
		}),
	}

	dialer := NewDialer()
	if updateNoVerify {
		dialer = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	u := updater.New(conn, dialer, opts...)
	if err := u.Run(ctx, firmware); err != nil {
		fmt.Println()
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Printf("Update complete.\n")
	return nil
}
