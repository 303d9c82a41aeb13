// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// TCP connection flags
	tcpHost string
	tcpPort int

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "vescli",
	Short: "VESC Express command-line client",
	Long: `vescli - A CLI tool for talking to VESC Express devices over TCP, serial,
or a WebSocket bridge.

Provides commands for liveness checks, firmware version queries, terminal
commands, passive traffic monitoring, and over-the-air firmware updates.

Connection modes:
  TCP:       --host 192.168.5.107 [--tcp-port 65102]
  Serial:    --port /dev/ttyACM0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the VESC_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.0.0",
}

func init() {
	// TCP connection flags
	rootCmd.PersistentFlags().StringVar(&tcpHost, "host", "", "Device hostname or IP address")
	rootCmd.PersistentFlags().IntVar(&tcpPort, "tcp-port", 65102, "TCP port (TCP only)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
