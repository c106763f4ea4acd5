// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 lidarscope authors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/neatokit/lidarscope/pkg/xv11"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live terminal dashboard for the LIDAR stream",
	Long: `Interactive terminal UI showing spin speed, scan assembly progress,
stream statistics and a scrolling event log.

Keys:
  p - pause acquisition (motor keeps spinning, frames are discarded)
  r - resume acquisition
  q - stop the driver and quit (also: s, Ctrl+C)`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for informational events
}

// Driver messages forwarded into the UI loop
type streamMsg struct {
	packet           *xv11.Packet
	err              error
	validationErrors []xv11.ValidationError
}
type shutdownMsg struct{}
type tickMsg time.Time

// TUI model
type tuiModel struct {
	connInfo      string
	cmds          chan<- xv11.Command
	stats         *xv11.Statistics
	assembler     *xv11.ScanAssembler
	eventLog      []eventLogEntry
	maxLogEntries int
	logView       viewport.Model
	paused        bool
	lastSpeed     float64
	hasPacket     bool
	scansComplete int
	lastScanSpeed float64
	width         int
	height        int
	quitting      bool
	shutdown      bool
}

func initialTUIModel(connInfo string, cmds chan<- xv11.Command) tuiModel {
	vp := viewport.New(76, 10)
	return tuiModel{
		connInfo:      connInfo,
		cmds:          cmds,
		stats:         xv11.NewStatistics(),
		assembler:     xv11.NewScanAssembler(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 200,
		logView:       vp,
		width:         80,
		height:        24,
	}
}

func (m tuiModel) Init() tea.Cmd {
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

// sendCommand forwards a control command without blocking the UI loop.
// A full channel means the driver is mid-cycle; dropping is safe because
// the user can press the key again.
func (m *tuiModel) sendCommand(c xv11.Command) {
	select {
	case m.cmds <- c:
	default:
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "p":
			if !m.paused {
				m.paused = true
				m.sendCommand(xv11.CommandPause)
				m.addLogEntry("Acquisition paused", false)
			}
		case "r":
			if m.paused {
				m.paused = false
				m.sendCommand(xv11.CommandRun)
				m.addLogEntry("Acquisition resumed", false)
			}
		case "q", "s", "ctrl+c":
			m.quitting = true
			m.sendCommand(xv11.CommandStop)
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width - 4
		logHeight := msg.Height - 14
		if logHeight < 5 {
			logHeight = 5
		}
		m.logView.Height = logHeight
		m.refreshLogView()

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case streamMsg:
		if msg.err != nil {
			m.stats.Update(xv11.ErrorMessage{Err: msg.err}, nil)
			m.addLogEntry(fmt.Sprintf("STREAM ERROR: %v", msg.err), true)
		} else if msg.packet != nil {
			m.stats.Update(xv11.PacketMessage{Packet: msg.packet}, msg.validationErrors)
			m.lastSpeed = msg.packet.Speed()
			m.hasPacket = true

			for _, verr := range msg.validationErrors {
				m.addLogEntry(fmt.Sprintf("frame %d: %s", msg.packet.FrameIndex(), verr.Message), true)
			}

			if scan := m.assembler.Add(msg.packet); scan != nil {
				m.scansComplete++
				m.lastScanSpeed = scan.Speed
				m.addLogEntry(fmt.Sprintf("Scan %d complete (mean %.2f RPM)", m.scansComplete, scan.Speed), false)
			}
		}

	case shutdownMsg:
		m.shutdown = true
		m.addLogEntry("Driver shut down", false)
		if m.quitting {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *tuiModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}

	m.refreshLogView()
}

var (
	tuiTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	tuiErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	tuiInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

func (m *tuiModel) refreshLogView() {
	var content strings.Builder
	for _, entry := range m.eventLog {
		timestamp := entry.timestamp.Format("15:04:05.000")
		if entry.isError {
			content.WriteString(fmt.Sprintf("%s %s\n",
				tuiTimestampStyle.Render(timestamp),
				tuiErrorStyle.Render("✗ "+entry.message),
			))
		} else {
			content.WriteString(fmt.Sprintf("%s %s\n",
				tuiTimestampStyle.Render(timestamp),
				tuiInfoStyle.Render("ℹ "+entry.message),
			))
		}
	}
	m.logView.SetContent(content.String())
	m.logView.GotoBottom()
}

func (m tuiModel) View() string {
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

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("LIDARSCOPE - LIVE DASHBOARD"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | p: pause  r: resume  q: quit", m.connInfo)))
	s.WriteString("\n\n")

	// Acquisition state
	switch {
	case m.shutdown:
		s.WriteString(errorStyle.Render("■ STOPPED"))
	case m.paused:
		s.WriteString(warningStyle.Render("‖ PAUSED"))
	case !m.hasPacket:
		s.WriteString(warningStyle.Render("⏳ Waiting for frames..."))
	default:
		s.WriteString(valueStyle.Render("▶ RUNNING"))
	}
	s.WriteString("\n\n")

	// Live status box
	m.stats.CalculateRates()
	frames, total := m.assembler.Progress()

	statusContent := strings.Builder{}
	statusContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Speed:"), valueStyle.Render(fmt.Sprintf("%.2f RPM", m.lastSpeed)),
		labelStyle.Render("Scan:"), valueStyle.Render(fmt.Sprintf("%d/%d frames", frames, total)),
		labelStyle.Render("Scans done:"), valueStyle.Render(fmt.Sprintf("%d", m.scansComplete)),
	))
	if m.scansComplete > 0 {
		statusContent.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Last scan mean speed:"),
			valueStyle.Render(fmt.Sprintf("%.2f RPM", m.lastScanSpeed)),
		))
	}

	var validPercent float64
	if m.stats.TotalFrames > 0 {
		validPercent = float64(m.stats.ValidPackets) * 100.0 / float64(m.stats.TotalFrames)
	}
	statusContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		labelStyle.Render("Valid:"), valueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidPackets, validPercent)),
		labelStyle.Render("Checksum errors:"), func() string {
			if m.stats.ChecksumErrors > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", m.stats.ChecksumErrors))
			}
			return valueStyle.Render("0")
		}(),
	))
	statusContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("Resyncs:"), fmt.Sprintf("%d", m.stats.ResyncEvents),
		labelStyle.Render("Invalid readings:"), fmt.Sprintf("%d", m.stats.InvalidDataReadings),
		labelStyle.Render("Frame rate:"), valueStyle.Render(fmt.Sprintf("%.1f fps", m.stats.FrameRate)),
	))

	s.WriteString(boxStyle.Render(statusContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	if len(m.eventLog) == 0 {
		s.WriteString(boxStyle.Width(m.width - 4).Render(headerStyle.Render("  (no events yet)")))
	} else {
		s.WriteString(boxStyle.Width(m.width - 4).Render(m.logView.View()))
	}

	return s.String()
}

func runTUI(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	driver := xv11.NewDriver(xv11.Config{})
	msgs := make(chan xv11.Message, 64)
	cmds := make(chan xv11.Command, 4)
	go driver.RunWithPort(conn, msgs, cmds)

	m := initialTUIModel(connInfo, cmds)
	p := tea.NewProgram(m)

	// Forward driver messages into the UI loop
	go func() {
		for msg := range msgs {
			switch dm := msg.(type) {
			case xv11.PacketMessage:
				p.Send(streamMsg{
					packet:           dm.Packet,
					validationErrors: xv11.ValidatePacket(dm.Packet),
				})
			case xv11.ErrorMessage:
				p.Send(streamMsg{err: dm.Err})
			case xv11.ShutdownMessage:
				p.Send(shutdownMsg{})
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}
