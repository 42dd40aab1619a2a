// ABOUTME: Bubbletea model for the server TUI
// ABOUTME: Holds the latest controller snapshot and renders it with lipgloss
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/audiospy/audiospy-go/internal/server"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type tickMsg time.Time

// statusMsg carries a controller snapshot into the bubbletea loop
type statusMsg server.Status

// Model is the bubbletea model for the server TUI
type Model struct {
	status    server.Status
	startTime time.Time
	sessions  int
	lastID    string
	quitting  bool
	quitChan  chan struct{}
	now       func() time.Time
}

// NewModel creates a model for a server listening on port
func NewModel(port int, quitChan chan struct{}) Model {
	return Model{
		status:    server.Status{State: server.StateAwaitingClient, Port: port},
		startTime: time.Now(),
		quitChan:  quitChan,
		now:       time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			// Signal the server to stop
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.applyStatus(server.Status(msg))
		return m, nil
	}

	return m, nil
}

// applyStatus stores a snapshot and counts distinct sessions
func (m *Model) applyStatus(st server.Status) {
	if st.Port == 0 {
		st.Port = m.status.Port
	}
	if st.Session != nil && st.Session.ID != m.lastID {
		m.lastID = st.Session.ID
		m.sessions++
	}
	m.status = st
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))
)

func (m Model) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("audiospy server"))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(headerStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("Port", fmt.Sprintf("%d", m.status.Port))
	field("Uptime", m.now().Sub(m.startTime).Round(time.Second).String())
	field("State", m.status.State.String())
	field("Sessions", fmt.Sprintf("%d", m.sessions))
	b.WriteString("\n")

	b.WriteString(sessionHeaderStyle.Render("Current Client"))
	b.WriteString("\n\n")

	if sess := m.status.Session; sess == nil {
		b.WriteString(valueStyle.Render("  No client connected"))
		b.WriteString("\n")
	} else {
		field("  Peer", sess.Peer)
		field("  Session", sess.ID)
		if sess.Audio.Format != 0 {
			field("  Format", fmt.Sprintf("%s %dHz %s", sess.Audio.Format, sess.Audio.SampleRate, channelName(sess.Audio.Channels)))
		}
		field("  Chunks", fmt.Sprintf("%d", sess.Chunks))
		field("  Streamed", formatBytes(sess.Bytes))
		field("  Connected", m.now().Sub(sess.Started).Round(time.Second).String())
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// formatBytes renders a byte count with a binary unit
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
