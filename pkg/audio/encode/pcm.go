// ABOUTME: PCM frame encoder
// ABOUTME: Encodes float32 frames to 16-bit little-endian PCM bytes
package encode

import (
	"encoding/binary"

	"github.com/walkie-lan/walkie/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	cfg audio.StreamConfig
}

// NewPCM creates a new PCM encoder
func NewPCM(cfg audio.StreamConfig) *PCMEncoder {
	return &PCMEncoder{cfg: cfg}
}

// Encode converts one frame to 16-bit PCM bytes
func (e *PCMEncoder) Encode(frame []float32) ([]byte, error) {
	if err := checkFrame(e.cfg, frame); err != nil {
		return nil, err
	}

	output := make([]byte, len(frame)*2)
	for i, sample := range frame {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
	}
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
