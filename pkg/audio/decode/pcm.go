// ABOUTME: PCM packet decoder
// ABOUTME: Decodes 16-bit little-endian PCM bytes to float32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/walkie-lan/walkie/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	cfg audio.StreamConfig
	pcm []float32
}

// NewPCM creates a new PCM decoder
func NewPCM(cfg audio.StreamConfig) *PCMDecoder {
	return &PCMDecoder{
		cfg: cfg,
		pcm: make([]float32, cfg.FrameSize()),
	}
}

// Decode converts 16-bit PCM bytes to float32 samples
func (d *PCMDecoder) Decode(packet []byte) ([]float32, error) {
	if len(packet) == 0 || len(packet)%(2*d.cfg.Channels) != 0 {
		return nil, fmt.Errorf("pcm decode failed: %d bytes is not a whole number of %d-channel samples",
			len(packet), d.cfg.Channels)
	}

	numSamples := len(packet) / 2
	if numSamples > len(d.pcm) {
		d.pcm = make([]float32, numSamples)
	}
	for i := 0; i < numSamples; i++ {
		d.pcm[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(packet[i*2:])))
	}
	return d.pcm[:numSamples], nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
