// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels it reports on
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Gate is the push-to-talk latch the view toggles and displays
type Gate interface {
	Toggle() bool
	IsOpen() bool
}

// Controls carries user actions out of the TUI
type Controls struct {
	Chat chan string
	Quit chan struct{}
}

// NewControls creates the control channels
func NewControls() *Controls {
	return &Controls{
		Chat: make(chan string, 10),
		Quit: make(chan struct{}, 1),
	}
}

// quit signals shutdown without blocking
func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// chat hands a message to the app without blocking the view
func (c *Controls) chat(msg string) bool {
	if c == nil {
		return false
	}
	select {
	case c.Chat <- msg:
		return true
	default:
		return false
	}
}

// Run creates the TUI program; the caller runs it
func Run(info InfoMsg, gate Gate, controls *Controls) *tea.Program {
	return tea.NewProgram(NewModel(info, gate, controls), tea.WithAltScreen())
}
