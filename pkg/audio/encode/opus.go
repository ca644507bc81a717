// ABOUTME: Opus voice encoder
// ABOUTME: Encodes float32 frames to Opus packets using libopus
package encode

import (
	"fmt"

	"github.com/walkie-lan/walkie/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder *opus.Encoder
	cfg     audio.StreamConfig
	buf     []byte
}

// NewOpus creates a new Opus encoder tuned for speech.
// bitrate <= 0 keeps the libopus default.
func NewOpus(cfg audio.StreamConfig, bitrate int) (*OpusEncoder, error) {
	encoder, err := opus.NewEncoder(cfg.SampleRate, cfg.Channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	if bitrate > 0 {
		if err := encoder.SetBitrate(bitrate); err != nil {
			return nil, fmt.Errorf("failed to set opus bitrate %d: %w", bitrate, err)
		}
	}

	return &OpusEncoder{
		encoder: encoder,
		cfg:     cfg,
		buf:     make([]byte, audio.MaxPacketSize),
	}, nil
}

// Encode converts one frame to an Opus packet
func (e *OpusEncoder) Encode(frame []float32) ([]byte, error) {
	if err := checkFrame(e.cfg, frame); err != nil {
		return nil, err
	}

	n, err := e.encoder.EncodeFloat32(frame, e.buf)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	packet := make([]byte, n)
	copy(packet, e.buf[:n])
	return packet, nil
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	// opus.Encoder has no Close; the cgo state is freed by the GC
	return nil
}
