// ABOUTME: Audio output interface definition
// ABOUTME: Common interface and backend selection for audio playback
package output

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Backend names
const (
	BackendMalgo     = "malgo"
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
)

var (
	// ErrNotOpen is returned by Start before a successful Open
	ErrNotOpen = errors.New("output not opened")

	// ErrUnknownBackend is returned by New for unsupported backend names
	ErrUnknownBackend = errors.New("unknown output backend")
)

// RenderFunc fills out with interleaved samples. It runs on the device's
// real-time thread and must not block.
type RenderFunc func(out []float32)

// Output represents an audio output device
type Output interface {
	// Open prepares the device and returns the channel count it will play.
	// channels of 0 selects the device default.
	Open(channels int) (int, error)

	// Start begins pulling audio from render
	Start(render RenderFunc) error

	// Errors reports fatal stream failures such as a disconnected device
	Errors() <-chan error

	// Close releases output resources
	Close() error
}

// Backends lists the output backends New accepts
func Backends() []string {
	return []string{BackendMalgo, BackendOto, BackendPortAudio}
}

// New creates the named output backend
func New(backend string, log *zap.SugaredLogger) (Output, error) {
	switch backend {
	case BackendMalgo, "":
		return NewMalgo(log), nil
	case BackendOto:
		return NewOto(log), nil
	case BackendPortAudio:
		return NewPortAudio(log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// faults carries at most one fatal error to whoever watches the stream
type faults chan error

func newFaults() faults {
	return make(faults, 1)
}

func (f faults) report(err error) {
	select {
	case f <- err:
	default:
	}
}

// clampChannels keeps negotiated channel counts within mono and stereo
func clampChannels(channels int) int {
	switch {
	case channels <= 0:
		return 2
	case channels > 2:
		return 2
	default:
		return channels
	}
}
