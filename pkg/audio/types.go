// ABOUTME: Audio type definitions
// ABOUTME: Defines the negotiated stream config and float32 sample conversions
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// SampleRate is the only rate the pipeline runs at (Opus native rate).
	SampleRate = 48000

	// FrameDurationMs is the duration of one codec frame.
	FrameDurationMs = 20

	// MaxChannels is the largest channel count the codec accepts.
	MaxChannels = 2
)

// StreamConfig describes the PCM stream shared by capture and playout.
// It is built once at startup and never changes afterwards.
type StreamConfig struct {
	SampleRate      int
	Channels        int
	FrameDurationMs int
}

// NewStreamConfig returns the fixed 48kHz/20ms config for the given channel
// count. Channel counts outside 1..2 are clamped.
func NewStreamConfig(channels int) StreamConfig {
	return StreamConfig{
		SampleRate:      SampleRate,
		Channels:        ClampChannels(channels),
		FrameDurationMs: FrameDurationMs,
	}
}

// FrameSize returns the number of interleaved samples in one codec frame.
func (c StreamConfig) FrameSize() int {
	return c.SamplesPerChannel() * c.Channels
}

// SamplesPerChannel returns the number of samples per channel in one frame.
func (c StreamConfig) SamplesPerChannel() int {
	return c.SampleRate / 1000 * c.FrameDurationMs
}

// SamplesForDuration returns the interleaved sample count covering ms milliseconds.
func (c StreamConfig) SamplesForDuration(ms int) int {
	return c.SampleRate / 1000 * ms * c.Channels
}

// Validate checks the config against what the codec supports.
func (c StreamConfig) Validate() error {
	if c.SampleRate != SampleRate {
		return fmt.Errorf("unsupported sample rate: %d (only %d)", c.SampleRate, SampleRate)
	}
	if c.Channels < 1 || c.Channels > MaxChannels {
		return fmt.Errorf("unsupported channel count: %d (supported: 1, 2)", c.Channels)
	}
	if c.FrameDurationMs != FrameDurationMs {
		return fmt.Errorf("unsupported frame duration: %dms (only %dms)", c.FrameDurationMs, FrameDurationMs)
	}
	return nil
}

// String renders the config for logs and the status view.
func (c StreamConfig) String() string {
	return fmt.Sprintf("%dHz %s %dms", c.SampleRate, ChannelName(c.Channels), c.FrameDurationMs)
}

// ClampChannels maps a device-reported channel count onto 1 or 2.
func ClampChannels(channels int) int {
	if channels <= 1 {
		return 1
	}
	return MaxChannels
}

// ChannelName returns a human-readable channel layout.
func ChannelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}

// SampleToInt16 converts a float32 sample to int16 with clipping.
func SampleToInt16(sample float32) int16 {
	if sample >= 1 {
		return math.MaxInt16
	}
	if sample <= -1 {
		return math.MinInt16
	}
	return int16(sample * 32767)
}

// SampleFromInt16 converts an int16 sample to float32.
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768
}

// SampleFromInt32 converts a signed sample of the given bit depth to float32.
func SampleFromInt32(sample int32, bitDepth int) float32 {
	return float32(sample) / float32(int64(1)<<(bitDepth-1))
}

// PutFloat32LE writes samples as little-endian IEEE-754 into dst.
// dst must hold at least 4*len(samples) bytes.
func PutFloat32LE(dst []byte, samples []float32) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}

// Float32FromLE reads little-endian IEEE-754 samples from src into dst and
// returns the number of samples read.
func Float32FromLE(dst []float32, src []byte) int {
	n := len(src) / 4
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return n
}

// Remix converts interleaved samples between channel counts. Going down to
// mono averages the channels; going up duplicates the mono sample.
func Remix(samples []float32, from, to int) []float32 {
	if from == to {
		return samples
	}
	frames := len(samples) / from
	out := make([]float32, frames*to)
	for f := 0; f < frames; f++ {
		if to == 1 {
			var sum float32
			for ch := 0; ch < from; ch++ {
				sum += samples[f*from+ch]
			}
			out[f] = sum / float32(from)
			continue
		}
		for ch := 0; ch < to; ch++ {
			src := ch
			if src >= from {
				src = from - 1
			}
			out[f*to+ch] = samples[f*from+src]
		}
	}
	return out
}
