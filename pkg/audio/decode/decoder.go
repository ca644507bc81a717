// ABOUTME: Decoder interface definition
// ABOUTME: Common interface and constructor for all packet decoders
package decode

import (
	"fmt"

	"github.com/walkie-lan/walkie/pkg/audio"
)

// Decoder decodes one packet into PCM samples
type Decoder interface {
	// Decode converts a packet to interleaved samples. The returned slice
	// is only valid until the next call.
	Decode(packet []byte) ([]float32, error)

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for the named codec
func New(codec string, cfg audio.StreamConfig) (Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch codec {
	case audio.CodecOpus:
		return NewOpus(cfg)
	case audio.CodecPCM:
		return NewPCM(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", audio.ErrUnknownCodec, codec)
	}
}
