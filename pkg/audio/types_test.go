// ABOUTME: Tests for audio stream config and sample conversion
// ABOUTME: Verifies frame sizes and float32 conversions
package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSize(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		expected int
	}{
		{"stereo", 2, 1920},
		{"mono", 1, 960},
		{"surround clamps to stereo", 6, 1920},
		{"zero clamps to mono", 0, 960},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewStreamConfig(tt.channels)
			assert.Equal(t, tt.expected, cfg.FrameSize())
			assert.Equal(t, 960, cfg.SamplesPerChannel())
		})
	}
}

func TestStreamConfigValidate(t *testing.T) {
	require.NoError(t, NewStreamConfig(2).Validate())

	bad := NewStreamConfig(2)
	bad.SampleRate = 44100
	assert.Error(t, bad.Validate())

	bad = NewStreamConfig(1)
	bad.Channels = 3
	assert.Error(t, bad.Validate())

	bad = NewStreamConfig(1)
	bad.FrameDurationMs = 10
	assert.Error(t, bad.Validate())
}

func TestSamplesForDuration(t *testing.T) {
	cfg := NewStreamConfig(2)
	assert.Equal(t, 48000*2, cfg.SamplesForDuration(1000))
	assert.Equal(t, cfg.FrameSize(), cfg.SamplesForDuration(FrameDurationMs))
}

func TestSampleInt16Conversion(t *testing.T) {
	assert.Equal(t, int16(math.MaxInt16), SampleToInt16(1.5))
	assert.Equal(t, int16(math.MinInt16), SampleToInt16(-2))
	assert.Equal(t, int16(0), SampleToInt16(0))

	for _, s := range []int16{0, 1000, -1000, 16384, -16384} {
		back := SampleToInt16(SampleFromInt16(s))
		assert.InDelta(t, s, back, 1, "sample %d", s)
	}
}

func TestFloat32LE(t *testing.T) {
	samples := []float32{0, 0.5, -0.25, 1}
	buf := make([]byte, len(samples)*4)
	PutFloat32LE(buf, samples)

	out := make([]float32, len(samples))
	n := Float32FromLE(out, buf)
	require.Equal(t, len(samples), n)
	assert.Equal(t, samples, out)
}

func TestRemix(t *testing.T) {
	stereo := []float32{0.2, 0.4, -0.2, -0.4}
	mono := Remix(stereo, 2, 1)
	assert.InDeltaSlice(t, []float32{0.3, -0.3}, mono, 1e-6)

	up := Remix([]float32{0.1, 0.2}, 1, 2)
	assert.Equal(t, []float32{0.1, 0.1, 0.2, 0.2}, up)

	same := Remix(stereo, 2, 2)
	assert.Equal(t, stereo, same)
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "Mono", ChannelName(1))
	assert.Equal(t, "Stereo", ChannelName(2))
}
