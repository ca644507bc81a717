//go:build portaudio

// ABOUTME: PortAudio microphone capture
// ABOUTME: Cross-platform callback capture using PortAudio
package input

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

// PortAudio captures from the default input device
type PortAudio struct {
	log      *zap.SugaredLogger
	stream   *portaudio.Stream
	channels int
	faults   faults
	inited   bool
}

// NewPortAudio creates a new PortAudio input
func NewPortAudio(log *zap.SugaredLogger) Input {
	return &PortAudio{log: log, faults: newFaults()}
}

// Open initializes PortAudio
func (p *PortAudio) Open(channels int) error {
	if !p.inited {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		p.inited = true
	}
	p.channels = channels

	p.log.Infow("Audio input initialized",
		"backend", BackendPortAudio,
		"sample_rate", audio.SampleRate,
		"channels", channels,
	)
	return nil
}

// Start opens and starts the capture stream
func (p *PortAudio) Start(capture CaptureFunc) error {
	if !p.inited {
		return ErrNotOpen
	}

	stream, err := portaudio.OpenDefaultStream(p.channels, 0, float64(audio.SampleRate), 0, func(in []float32) {
		capture(in)
	})
	if err != nil {
		return fmt.Errorf("failed to open capture stream: %w", err)
	}

	p.stream = stream
	return stream.Start()
}

// Errors reports stream failures
func (p *PortAudio) Errors() <-chan error {
	return p.faults
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			p.log.Warnw("Capture stream stop error", "error", err)
		}
		if err := p.stream.Close(); err != nil {
			p.log.Warnw("Capture stream close error", "error", err)
		}
		p.stream = nil
	}
	if p.inited {
		p.inited = false
		return portaudio.Terminate()
	}
	return nil
}
