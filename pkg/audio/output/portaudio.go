//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform callback output using PortAudio
package output

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

// PortAudio output implementation
type PortAudio struct {
	log      *zap.SugaredLogger
	stream   *portaudio.Stream
	channels int
	faults   faults
	inited   bool
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio(log *zap.SugaredLogger) Output {
	return &PortAudio{log: log, faults: newFaults()}
}

// Open initializes PortAudio and reads the default device's channel count
func (p *PortAudio) Open(channels int) (int, error) {
	if !p.inited {
		if err := portaudio.Initialize(); err != nil {
			return 0, fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		p.inited = true
	}

	if channels <= 0 {
		dev, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return 0, fmt.Errorf("no default output device: %w", err)
		}
		channels = dev.MaxOutputChannels
	}
	p.channels = clampChannels(channels)

	p.log.Infow("Audio output initialized",
		"backend", BackendPortAudio,
		"sample_rate", audio.SampleRate,
		"channels", p.channels,
	)
	return p.channels, nil
}

// Start opens and starts the callback stream
func (p *PortAudio) Start(render RenderFunc) error {
	if !p.inited {
		return ErrNotOpen
	}

	stream, err := portaudio.OpenDefaultStream(0, p.channels, float64(audio.SampleRate), 0, func(out []float32) {
		render(out)
	})
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
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
			p.log.Warnw("Stream stop error", "error", err)
		}
		if err := p.stream.Close(); err != nil {
			p.log.Warnw("Stream close error", "error", err)
		}
		p.stream = nil
	}
	if p.inited {
		p.inited = false
		return portaudio.Terminate()
	}
	return nil
}
