// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Seafoam Labs

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/seafoam-labs/corsair/pkg/bitbang"
	"github.com/spf13/cobra"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	monitorPollMs     = 250 // ADC poll interval in milliseconds
	monitorHistoryLen = 60  // Samples kept for the bar graph
	monitorMaxLog     = 100
)

// Focus states
const (
	focusNone = iota
	focusFreqInput
)

//////////////////////////////////////////////////////////////
// Command
//////////////////////////////////////////////////////////////

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live ADC monitor with PWM control (TUI)",
	Long: `Interactive terminal UI that polls the ADC and graphs the voltage.

Keys:
  Tab    - focus the PWM frequency input
  Enter  - apply the entered PWM frequency (50% duty)
  o      - turn the PWM output off
  q      - quit (device is returned to terminal mode)

All device traffic is serialized: the ADC poll pauses while a PWM command
is being applied.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	session, t, connInfo, err := OpenSession()
	if err != nil {
		return err
	}
	defer t.Close()
	defer session.Reset()

	model := initialMonitorModel(session, connInfo)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor UI failed: %w", err)
	}
	return nil
}

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// monitorModel is the Bubble Tea model for the live monitor
type monitorModel struct {
	session  *bitbang.Session
	connInfo string

	// Latest reading and running statistics
	raw       uint16
	voltage   float64
	samples   int
	minV      float64
	maxV      float64
	sumV      float64
	history   []float64
	readError error

	// PWM control
	freqInput    textinput.Model
	focusedField int
	pwmActive    bool
	pwmFreq      float64
	pendingFreq  *float64 // non-nil: apply on next I/O slot
	pendingOff   bool

	// Event log
	eventLog []monitorLogEntry

	// UI state
	width    int
	height   int
	quitting bool
}

type monitorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type monitorTickMsg time.Time

type voltageMsg struct {
	raw     uint16
	voltage float64
	err     error
}

type pwmResultMsg struct {
	freq float64
	off  bool
	err  error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialMonitorModel(session *bitbang.Session, connInfo string) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "1000"
	ti.CharLimit = 12
	ti.Width = 12

	return monitorModel{
		session:      session,
		connInfo:     connInfo,
		history:      make([]float64, 0, monitorHistoryLen),
		freqInput:    ti,
		focusedField: focusNone,
		eventLog:     make([]monitorLogEntry, 0),
		width:        80,
		height:       24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return readVoltageCmd(m.session)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(monitorPollMs*time.Millisecond, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func readVoltageCmd(session *bitbang.Session) tea.Cmd {
	return func() tea.Msg {
		raw, voltage, err := session.ReadSample()
		return voltageMsg{raw: raw, voltage: voltage, err: err}
	}
}

func applyPWMCmd(session *bitbang.Session, freq float64) tea.Cmd {
	return func() tea.Msg {
		err := session.SetPWMFrequency(freq, 0.5)
		return pwmResultMsg{freq: freq, err: err}
	}
}

func disablePWMCmd(session *bitbang.Session) tea.Cmd {
	return func() tea.Msg {
		err := session.DisablePWM()
		return pwmResultMsg{off: true, err: err}
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case monitorTickMsg:
		// One I/O slot per tick: pending PWM work preempts the poll
		if m.quitting {
			return m, tea.Quit
		}
		if m.pendingOff {
			m.pendingOff = false
			return m, disablePWMCmd(m.session)
		}
		if m.pendingFreq != nil {
			freq := *m.pendingFreq
			m.pendingFreq = nil
			return m, applyPWMCmd(m.session, freq)
		}
		return m, readVoltageCmd(m.session)

	case voltageMsg:
		m.readError = msg.err
		if msg.err == nil {
			m.recordSample(msg.raw, msg.voltage)
		} else {
			m.addLogEntry(fmt.Sprintf("ADC read failed: %v", msg.err), true)
		}
		return m, monitorTickCmd()

	case pwmResultMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("PWM command failed: %v", msg.err), true)
		} else if msg.off {
			m.pwmActive = false
			m.addLogEntry("PWM output disabled", false)
		} else {
			m.pwmActive = true
			m.pwmFreq = msg.freq
			m.addLogEntry(fmt.Sprintf("PWM output enabled: %g Hz (50%% duty)", msg.freq), false)
		}
		return m, monitorTickCmd()
	}

	// Pass remaining messages to the focused input
	if m.focusedField == focusFreqInput {
		var cmd tea.Cmd
		m.freqInput, cmd = m.freqInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focusedField != focusFreqInput {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab":
		if m.focusedField == focusFreqInput {
			m.focusedField = focusNone
			m.freqInput.Blur()
		} else {
			m.focusedField = focusFreqInput
			m.freqInput.Focus()
		}
		return m, nil

	case "enter":
		if m.focusedField == focusFreqInput {
			return m.queuePWM()
		}

	case "o":
		if m.focusedField != focusFreqInput {
			m.pendingOff = true
			m.addLogEntry("PWM off queued", false)
			return m, nil
		}
	}

	if m.focusedField == focusFreqInput {
		var cmd tea.Cmd
		m.freqInput, cmd = m.freqInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *monitorModel) queuePWM() (tea.Model, tea.Cmd) {
	freqStr := m.freqInput.Value()
	if freqStr == "" {
		freqStr = m.freqInput.Placeholder
	}

	freq, err := strconv.ParseFloat(freqStr, 64)
	if err != nil {
		m.addLogEntry(fmt.Sprintf("Invalid frequency: %s", freqStr), true)
		return m, nil
	}

	// Validate before queueing so bad values fail immediately
	if _, err := bitbang.PWMConfigFor(freq, 0.5); err != nil {
		m.addLogEntry(fmt.Sprintf("Cannot use %g Hz: %v", freq, err), true)
		return m, nil
	}

	m.pendingFreq = &freq
	m.focusedField = focusNone
	m.freqInput.Blur()
	m.addLogEntry(fmt.Sprintf("PWM %g Hz queued", freq), false)
	return m, nil
}

//////////////////////////////////////////////////////////////
// Data Processing
//////////////////////////////////////////////////////////////

func (m *monitorModel) recordSample(raw uint16, voltage float64) {
	m.raw = raw
	m.voltage = voltage

	if m.samples == 0 || voltage < m.minV {
		m.minV = voltage
	}
	if m.samples == 0 || voltage > m.maxV {
		m.maxV = voltage
	}
	m.sumV += voltage
	m.samples++

	m.history = append(m.history, voltage)
	if len(m.history) > monitorHistoryLen {
		m.history = m.history[len(m.history)-monitorHistoryLen:]
	}
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, monitorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > monitorMaxLog {
		m.eventLog = m.eventLog[len(m.eventLog)-monitorMaxLog:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

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
	s.WriteString(titleStyle.Render("CORSAIR MONITOR"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=pwm o=pwm-off", m.connInfo)))
	s.WriteString("\n\n")

	// Current reading
	reading := fmt.Sprintf("%s %s  %s %s",
		labelStyle.Render("Voltage:"), valueStyle.Render(bitbang.FormatVoltage(m.voltage)),
		labelStyle.Render("Raw:"), valueStyle.Render(fmt.Sprintf("%4d", m.raw)))
	if m.readError != nil {
		reading += "  " + errorStyle.Render("READ ERROR")
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(reading))
	s.WriteString("\n\n")

	// Statistics
	var meanV float64
	if m.samples > 0 {
		meanV = m.sumV / float64(m.samples)
	}
	stats := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Samples:"), valueStyle.Render(fmt.Sprintf("%d", m.samples)),
		labelStyle.Render("Min:"), valueStyle.Render(bitbang.FormatVoltage(m.minV)),
		labelStyle.Render("Max:"), valueStyle.Render(bitbang.FormatVoltage(m.maxV)),
		labelStyle.Render("Mean:"), valueStyle.Render(bitbang.FormatVoltage(meanV)))
	s.WriteString(boxStyle.Width(m.width - 4).Render(stats))
	s.WriteString("\n\n")

	// Voltage graph
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.renderGraph(labelStyle)))
	s.WriteString("\n\n")

	// PWM control
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.renderPWMPanel(labelStyle, valueStyle, headerStyle)))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.renderEventLog(labelStyle, warningStyle, errorStyle, headerStyle)))

	return s.String()
}

// renderGraph draws the recent history as a unicode bar per sample, scaled
// against the 6.6 V reference.
func (m monitorModel) renderGraph(labelStyle lipgloss.Style) string {
	bars := []rune(" ▁▂▃▄▅▆▇█")

	var s strings.Builder
	s.WriteString(labelStyle.Render("HISTORY"))
	s.WriteString(" ")

	for _, v := range m.history {
		idx := int(v / 6.6 * float64(len(bars)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(bars) {
			idx = len(bars) - 1
		}
		s.WriteRune(bars[idx])
	}

	return s.String()
}

func (m monitorModel) renderPWMPanel(labelStyle, valueStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder

	s.WriteString(labelStyle.Render("PWM"))
	s.WriteString(" | ")
	if m.pwmActive {
		s.WriteString(valueStyle.Render(fmt.Sprintf("ON %g Hz", m.pwmFreq)))
	} else {
		s.WriteString(headerStyle.Render("off"))
	}
	s.WriteString("  ")

	s.WriteString(labelStyle.Render("Frequency (Hz): "))
	if m.focusedField == focusFreqInput {
		s.WriteString(m.freqInput.View())
		s.WriteString("  (Enter to apply)")
	} else {
		val := m.freqInput.Value()
		if val == "" {
			val = m.freqInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
		s.WriteString(headerStyle.Render("  (Tab to edit)"))
	}

	return s.String()
}

func (m monitorModel) renderEventLog(labelStyle, warningStyle, errorStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := 6
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}
	startIdx := len(m.eventLog) - logHeight

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return s.String()
}
