// ABOUTME: Opus voice decoder
// ABOUTME: Decodes Opus packets to float32 samples using libopus
package decode

import (
	"fmt"

	"github.com/walkie-lan/walkie/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxFrameMs is the longest frame an Opus packet can carry.
const maxFrameMs = 120

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	decoder *opus.Decoder
	cfg     audio.StreamConfig
	pcm     []float32
}

// NewOpus creates a new Opus decoder
func NewOpus(cfg audio.StreamConfig) (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(cfg.SampleRate, cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder: dec,
		cfg:     cfg,
		pcm:     make([]float32, cfg.SamplesForDuration(maxFrameMs)),
	}, nil
}

// Decode converts an Opus packet to float32 samples
func (d *OpusDecoder) Decode(packet []byte) ([]float32, error) {
	if len(packet) == 0 {
		return nil, fmt.Errorf("opus decode failed: empty packet")
	}

	// n is samples per channel
	n, err := d.decoder.DecodeFloat32(packet, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}
	return d.pcm[:n*d.cfg.Channels], nil
}

// Close releases resources
func (d *OpusDecoder) Close() error {
	return nil
}
