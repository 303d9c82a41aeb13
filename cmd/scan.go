// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/openvesc/vescli/pkg/vesclient"
	"github.com/openvesc/vescli/pkg/vescproto"
)

var (
	scanTimeout int
	scanProbe   bool
)

// Ports a VESC Express commonly listens on: the native TCP server, the
// OTA/HTTP port, and the esptool flashing port.
var scanPorts = []int{65102, 80, 3232}

var scanCmd = &cobra.Command{
	Use:   "scan <host>",
	Short: "Scan a host for open device ports",
	Long: `Probe the well-known TCP ports of a VESC Express on a given host.

With --probe, an ALIVE command is additionally sent on each open port to
confirm it speaks the protocol rather than just accepting connections.

Exit codes:
  0 - At least one open port found
  1 - No open ports
  2 - Resolution error

Examples:
  vescli scan 192.168.5.107
  vescli scan vesc.local --probe`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 2, "Per-port timeout in seconds")
	scanCmd.Flags().BoolVar(&scanProbe, "probe", false, "Send an ALIVE command on open ports")
}

func runScan(cmd *cobra.Command, args []string) error {
	host := args[0]

	if _, err := net.LookupHost(host); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot resolve %s: %v\n", host, err)
		os.Exit(2)
	}

	fmt.Printf("vescli - Port Scan\n")
	fmt.Printf("Host: %s\n", host)
	fmt.Printf("Ports: %v\n\n", scanPorts)

	timeout := time.Duration(scanTimeout) * time.Second

	type result struct {
		port   int
		open   bool
		speaks bool
	}

	results := make([]result, len(scanPorts))
	var wg sync.WaitGroup
	for i, port := range scanPorts {
		wg.Add(1)
		go func(i, port int) {
			defer wg.Done()

			addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
			conn, err := net.DialTimeout("tcp", addr, timeout)
			if err != nil {
				results[i] = result{port: port}
				return
			}

			r := result{port: port, open: true}
			if scanProbe {
				transport := &TCPConnection{conn: conn}
				client := vesclient.NewClient(transport)
				if _, err := client.Request(vescproto.CmdAlive, nil, timeout); err == nil {
					r.speaks = true
				}
			}
			conn.Close()
			results[i] = r
		}(i, port)
	}
	wg.Wait()

	found := 0
	for _, r := range results {
		switch {
		case !r.open:
			fmt.Printf("  %5d  closed\n", r.port)
		case scanProbe && r.speaks:
			fmt.Printf("  %5d  open (VESC protocol confirmed)\n", r.port)
			found++
		case scanProbe:
			fmt.Printf("  %5d  open (no protocol response)\n", r.port)
			found++
		default:
			fmt.Printf("  %5d  open\n", r.port)
			found++
		}
	}

	fmt.Printf("\n--- Scan summary ---\n")
	fmt.Printf("Open ports: %d\n", found)

	if found == 0 {
		os.Exit(1)
	}
	return nil
}
