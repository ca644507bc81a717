//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package input

import (
	"errors"

	"go.uber.org/zap"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio input implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio input
func NewPortAudio(*zap.SugaredLogger) Input {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(int) error {
	return errPortAudioDisabled
}

// Start begins capturing
func (p *PortAudio) Start(CaptureFunc) error {
	return errPortAudioDisabled
}

// Errors reports stream failures
func (p *PortAudio) Errors() <-chan error {
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
