// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 OpenVESC contributors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openvesc/vescli/pkg/vescproto"
)

// Frame log entry
type frameLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Messages
type tickMsg time.Time
type frameMsg struct {
	frame *vescproto.Frame
	err   error
}
type resyncMsg struct {
	bytes uint64
}
type connClosedMsg struct{}

// Monitor TUI model
type monitorModel struct {
	connInfo      string
	stats         *vescproto.Statistics
	frameLog      []frameLogEntry
	maxLogEntries int
	logView       viewport.Model
	width         int
	height        int
	connClosed    bool
	quitting      bool
}

func initialMonitorModel(connInfo string) monitorModel {
	return monitorModel{
		connInfo:      connInfo,
		stats:         vescproto.NewStatistics(),
		frameLog:      make([]frameLogEntry, 0),
		maxLogEntries: 200,
		logView:       viewport.New(80, 16),
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width - 4
		m.logView.Height = msg.Height - 10
		if m.logView.Height < 5 {
			m.logView.Height = 5
		}

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case frameMsg:
		if msg.err != nil {
			m.stats.Update(nil, msg.err)
			m.addLogEntry(fmt.Sprintf("CRC ERROR: %v", msg.err), true)
		} else if msg.frame != nil {
			m.stats.Update(msg.frame, nil)
			name := vescproto.CommandName(msg.frame.Command())
			m.addLogEntry(fmt.Sprintf("%s (%d bytes)", name, len(msg.frame.Payload())), false)
		}

	case resyncMsg:
		m.stats.AddResyncedBytes(msg.bytes)
		m.addLogEntry(fmt.Sprintf("RESYNC: dropped %d bytes", msg.bytes), true)

	case connClosedMsg:
		m.connClosed = true
		m.addLogEntry("Connection closed", true)
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := frameLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.frameLog = append(m.frameLog, entry)

	// Keep only last N entries
	if len(m.frameLog) > m.maxLogEntries {
		m.frameLog = m.frameLog[len(m.frameLog)-m.maxLogEntries:]
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("VESCLI - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	if m.connClosed {
		s.WriteString(errorStyle.Render("✗ Connection closed"))
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	var validPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidFrames) * 100.0 / float64(m.stats.TotalFrames)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidFrames, validPercent)),
		statsLabelStyle.Render("CRC Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.CRCErrors)),
	))
	if m.stats.ResyncedBytes > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Resynced:"), errorStyle.Render(fmt.Sprintf("%d bytes", m.stats.ResyncedBytes)),
		))
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Frame log
	s.WriteString(statsLabelStyle.Render("Recent Frames:"))
	s.WriteString("\n")

	logContent := strings.Builder{}
	if len(m.frameLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no frames yet)"))
	} else {
		for _, entry := range m.frameLog {
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					statsValueStyle.Render(entry.message),
				))
			}
		}
	}

	m.logView.SetContent(logContent.String())
	m.logView.GotoBottom()
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.logView.View()))

	return s.String()
}
