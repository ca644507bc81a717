// ABOUTME: Bubbletea model for the walkie TUI
// ABOUTME: Defines view state, key handling and rendering
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/walkie-lan/walkie/pkg/audio"
)

// MaxEvents bounds the events log
const MaxEvents = 100

// visibleEvents is how many of the newest events are drawn
const visibleEvents = 10

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	txStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1)
	standbyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 1)
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

type event struct {
	at   time.Time
	text string
}

// Model represents the TUI state
type Model struct {
	info     InfoMsg
	gate     Gate
	controls *Controls

	// Stats
	peers        []string
	bufferDepth  int
	packets      uint64
	decodeErrors uint64
	frames       uint64
	sent         uint64

	events []event

	// Chat input
	chatting bool
	input    []rune

	quitting bool

	// Dimensions
	width  int
	height int
}

// InfoMsg describes the local instance; sent once at startup
type InfoMsg struct {
	Instance  string
	LocalIP   string
	ChatPort  int
	AudioPort int
	Codec     string
	Channels  int
	Version   string
}

// StatsMsg replaces the connection panel figures
type StatsMsg struct {
	Peers        []string
	BufferDepth  int
	Packets      uint64
	DecodeErrors uint64
	Frames       uint64
	Sent         uint64
}

// EventMsg appends a line to the events log
type EventMsg struct {
	At   time.Time
	Text string
}

// NewModel creates a new TUI model
func NewModel(info InfoMsg, gate Gate, controls *Controls) Model {
	return Model{
		info:     info,
		gate:     gate,
		controls: controls,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case InfoMsg:
		m.info = msg
	case StatsMsg:
		m.applyStats(msg)
	case EventMsg:
		m.addEvent(msg)
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.chatting {
		return m.handleChatKey(msg)
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "t", " ":
		if m.gate != nil {
			if m.gate.Toggle() {
				m.addEvent(EventMsg{Text: "Transmitting"})
			} else {
				m.addEvent(EventMsg{Text: "Standby"})
			}
		}
	case "c":
		m.chatting = true
		m.input = m.input[:0]
	}

	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.chatting = false
		m.input = nil
	case tea.KeyEnter:
		text := strings.TrimSpace(string(m.input))
		m.chatting = false
		m.input = nil
		if text == "" {
			break
		}
		if m.controls.chat(text) {
			m.addEvent(EventMsg{Text: "You: " + text})
		} else {
			m.addEvent(EventMsg{Text: "Chat dropped: app busy"})
		}
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.controls.quit()
	return m, tea.Quit
}

// applyStats updates model from a stats message
func (m *Model) applyStats(msg StatsMsg) {
	m.peers = msg.Peers
	m.bufferDepth = msg.BufferDepth
	m.packets = msg.Packets
	m.decodeErrors = msg.DecodeErrors
	m.frames = msg.Frames
	m.sent = msg.Sent
}

// addEvent appends to the events log, dropping the oldest beyond MaxEvents
func (m *Model) addEvent(msg EventMsg) {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	m.events = append(m.events, event{at: msg.At, text: msg.Text})
	if over := len(m.events) - MaxEvents; over > 0 {
		m.events = append(m.events[:0:0], m.events[over:]...)
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderConnection())
	b.WriteString(m.renderTransmit())
	b.WriteString(m.renderPeers())
	b.WriteString(m.renderEvents())
	b.WriteString(m.renderFooter())
	return b.String()
}

func field(name, value string) string {
	return headerStyle.Render(name+": ") + valueStyle.Render(value) + "\n"
}

// renderHeader renders instance identity
func (m Model) renderHeader() string {
	var b strings.Builder
	title := "Walkie"
	if m.info.Version != "" {
		title += " " + m.info.Version
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(field("Instance", m.info.Instance))
	b.WriteString(field("Local IP", m.info.LocalIP))
	b.WriteString(field("Ports", fmt.Sprintf("chat %d / audio %d", m.info.ChatPort, m.info.AudioPort)))
	b.WriteString("\n")
	return b.String()
}

// renderConnection renders peer count and playout state
func (m Model) renderConnection() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Connection"))
	b.WriteString("\n")
	b.WriteString(field("Peers", fmt.Sprintf("%d", len(m.peers))))
	b.WriteString(field("Buffer", fmt.Sprintf("%d samples", m.bufferDepth)))
	b.WriteString(field("Format", fmt.Sprintf("%s %s", m.info.Codec, audio.ChannelName(m.info.Channels))))
	b.WriteString(field("RX", fmt.Sprintf("%d packets (%d bad)", m.packets, m.decodeErrors)))
	b.WriteString(field("TX", fmt.Sprintf("%d frames, %d datagrams", m.frames, m.sent)))
	b.WriteString("\n")
	return b.String()
}

// renderTransmit renders the push-to-talk panel
func (m Model) renderTransmit() string {
	state := standbyStyle.Render("STANDBY")
	if m.gate != nil && m.gate.IsOpen() {
		state = txStyle.Render("TRANSMITTING")
	}
	return sectionStyle.Render("Push to talk") + "\n" + state + "\n\n"
}

// renderPeers renders the peer list
func (m Model) renderPeers() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Peers (%d)", len(m.peers))))
	b.WriteString("\n")
	if len(m.peers) == 0 {
		b.WriteString(valueStyle.Render("  Searching..."))
		b.WriteString("\n")
	}
	for _, p := range m.peers {
		b.WriteString(fmt.Sprintf("  • %s\n", p))
	}
	b.WriteString("\n")
	return b.String()
}

// renderEvents renders the newest events
func (m Model) renderEvents() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Events"))
	b.WriteString("\n")

	start := max(len(m.events)-visibleEvents, 0)
	for _, e := range m.events[start:] {
		b.WriteString(faintStyle.Render(e.at.Format("15:04:05")))
		b.WriteString(" ")
		b.WriteString(e.text)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderFooter renders the chat line or keyboard shortcuts
func (m Model) renderFooter() string {
	if m.chatting {
		return headerStyle.Render("Say: ") + string(m.input) + "█\n" +
			faintStyle.Render("Enter:Send  Esc:Cancel") + "\n"
	}
	return faintStyle.Render("t/space:Talk  c:Chat  q:Quit") + "\n"
}
