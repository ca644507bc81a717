//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"

	"go.uber.org/zap"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio(*zap.SugaredLogger) Output {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(int) (int, error) {
	return 0, errPortAudioDisabled
}

// Start begins playback
func (p *PortAudio) Start(RenderFunc) error {
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
