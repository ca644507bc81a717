// ABOUTME: Encoder interface definition
// ABOUTME: Common interface and constructor for all frame encoders
package encode

import (
	"fmt"

	"github.com/walkie-lan/walkie/pkg/audio"
)

// Encoder encodes one PCM frame into one packet
type Encoder interface {
	// Encode converts exactly one frame of samples to a packet
	Encode(frame []float32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// New creates an encoder for the named codec
func New(codec string, cfg audio.StreamConfig, bitrate int) (Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch codec {
	case audio.CodecOpus:
		return NewOpus(cfg, bitrate)
	case audio.CodecPCM:
		return NewPCM(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", audio.ErrUnknownCodec, codec)
	}
}

func checkFrame(cfg audio.StreamConfig, frame []float32) error {
	if len(frame) != cfg.FrameSize() {
		return fmt.Errorf("%w: got %d samples, want %d", audio.ErrFrameSize, len(frame), cfg.FrameSize())
	}
	return nil
}
