// ABOUTME: Audio input interface definition
// ABOUTME: Common interface and backend selection for capture sources
package input

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Backend names
const (
	BackendMalgo     = "malgo"
	BackendPortAudio = "portaudio"
	BackendTone      = "tone"
	BackendFile      = "file"
)

var (
	// ErrNotOpen is returned by Start before a successful Open
	ErrNotOpen = errors.New("input not opened")

	// ErrUnknownBackend is returned by New for unsupported backend names
	ErrUnknownBackend = errors.New("unknown input backend")
)

// CaptureFunc receives captured samples. Device backends call it on the
// real-time thread; it must not block. in is only valid during the call.
type CaptureFunc func(in []float32)

// Input represents a capture source
type Input interface {
	// Open prepares the source to deliver the given channel count
	Open(channels int) error

	// Start begins delivering samples to capture
	Start(capture CaptureFunc) error

	// Errors reports fatal failures such as a disconnected device
	Errors() <-chan error

	// Close releases input resources
	Close() error
}

// Config selects a capture backend
type Config struct {
	Backend string

	// File is the mp3 or flac file streamed by the file backend
	File string
}

// Backends lists the input backends New accepts
func Backends() []string {
	return []string{BackendMalgo, BackendPortAudio, BackendTone, BackendFile}
}

// New creates the configured input backend
func New(cfg Config, log *zap.SugaredLogger) (Input, error) {
	switch cfg.Backend {
	case BackendMalgo, "":
		return NewMalgo(log), nil
	case BackendPortAudio:
		return NewPortAudio(log), nil
	case BackendTone:
		return NewTone(log), nil
	case BackendFile:
		if cfg.File == "" {
			return nil, errors.New("file input requires a file path")
		}
		return NewFile(cfg.File, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
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
