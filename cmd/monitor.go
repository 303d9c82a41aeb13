// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/openvesc/vescli/pkg/capture"
	"github.com/openvesc/vescli/pkg/vescproto"
)

var (
	monitorShowErrors    bool
	monitorStatsInterval int
	monitorCaptureFile   string
	monitorUseTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Passively decode and display device traffic",
	Long: `Continuously decode and display protocol frames as they arrive.

Each frame is shown with timestamp, command name, and decoded payload.
Corrupt frames and resynchronization events can be highlighted, and periodic
statistics summaries are displayed at a configurable interval.

With --capture, every decoded frame is also appended to a capture file that
can be replayed later with the inspect command.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowErrors, "show-errors", true, "Highlight CRC errors and resync events")
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().StringVar(&monitorCaptureFile, "capture", "", "Append decoded frames to a capture file")
	monitorCmd.Flags().BoolVar(&monitorUseTUI, "tui", false, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	var capWriter *capture.Writer
	if monitorCaptureFile != "" {
		f, err := os.OpenFile(monitorCaptureFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open capture file: %w", err)
		}
		defer f.Close()
		capWriter = capture.NewWriter(f)
	}

	if monitorUseTUI {
		return runMonitorTUI(conn, connInfo, capWriter)
	}
	return runMonitorText(conn, connInfo, capWriter)
}

// runMonitorText runs the monitor in plain text mode
func runMonitorText(conn Connection, connInfo string, capWriter *capture.Writer) error {
	fmt.Printf("vescli - Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", monitorStatsInterval)
	if monitorCaptureFile != "" {
		fmt.Printf("Capture: %s\n", monitorCaptureFile)
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := vescproto.NewDecoder()
	stats := vescproto.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(monitorStatsInterval) * time.Second)
	defer statsTicker.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Channel for non-blocking reads
	dataCh := make(chan []byte, 10)
	go func() {
		buf := make([]byte, 512)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					log.Printf("Connection closed")
					close(dataCh)
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			dataCh <- data
		}
	}()

	var lastResynced uint64
	for {
		select {
		case data, ok := <-dataCh:
			if !ok {
				return nil
			}
			decoder.Write(data)
			for {
				frame, err := decoder.Next()
				if err != nil {
					stats.Update(nil, err)
					if monitorShowErrors {
						timestamp := time.Now().Format("15:04:05.000")
						fmt.Printf("[%s] \033[1;31mCRC ERROR:\033[0m %v\n", timestamp, err)
					}
					continue
				}
				if frame == nil {
					break
				}

				stats.Update(frame, nil)
				fmt.Print(vescproto.FormatFrame(frame))

				if capWriter != nil {
					rec := capture.Record{
						Timestamp: frame.Timestamp(),
						Direction: capture.DirectionRx,
						Command:   frame.Command(),
						Payload:   frame.Payload(),
					}
					if err := capWriter.Write(rec); err != nil {
						log.Printf("Capture write error: %v", err)
					}
				}
			}

			// Fold newly dropped garbage bytes into the statistics
			if resynced := decoder.ResyncedBytes(); resynced > lastResynced {
				delta := resynced - lastResynced
				lastResynced = resynced
				stats.AddResyncedBytes(delta)
				if monitorShowErrors {
					timestamp := time.Now().Format("15:04:05.000")
					fmt.Printf("[%s] \033[1;33mRESYNC:\033[0m dropped %d bytes\n", timestamp, delta)
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()

		case <-interrupt:
			fmt.Println()
			fmt.Print(stats.String())
			return nil
		}
	}
}

// runMonitorTUI runs the monitor in TUI mode
func runMonitorTUI(conn Connection, connInfo string, capWriter *capture.Writer) error {
	decoder := vescproto.NewDecoder()

	m := initialMonitorModel(connInfo)
	p := tea.NewProgram(m)

	// Reader goroutine feeding the TUI
	go func() {
		buf := make([]byte, 512)
		var lastResynced uint64
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					p.Send(connClosedMsg{})
					return
				}
				continue
			}

			decoder.Write(buf[:n])
			for {
				frame, decodeErr := decoder.Next()
				if decodeErr != nil {
					p.Send(frameMsg{err: decodeErr})
					continue
				}
				if frame == nil {
					break
				}

				p.Send(frameMsg{frame: frame})

				if capWriter != nil {
					capWriter.Write(capture.Record{
						Timestamp: frame.Timestamp(),
						Direction: capture.DirectionRx,
						Command:   frame.Command(),
						Payload:   frame.Payload(),
					})
				}
			}

			if resynced := decoder.ResyncedBytes(); resynced > lastResynced {
				p.Send(resyncMsg{bytes: resynced - lastResynced})
				lastResynced = resynced
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}
