// ABOUTME: Tests for PCM decoder
// ABOUTME: Verifies 16-bit decoding and malformed packet rejection
package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walkie-lan/walkie/pkg/audio"
	"github.com/walkie-lan/walkie/pkg/audio/encode"
)

func TestNew(t *testing.T) {
	dec, err := New(audio.CodecPCM, audio.NewStreamConfig(2))
	require.NoError(t, err)
	require.NotNil(t, dec)

	_, err = New("mp3", audio.NewStreamConfig(2))
	assert.ErrorIs(t, err, audio.ErrUnknownCodec)
}

func TestPCMDecoder(t *testing.T) {
	dec := NewPCM(audio.NewStreamConfig(1))

	// 0x0100 = 256, 0x0302 = 770 (little-endian)
	out, err := dec.Decode([]byte{0x00, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, audio.SampleFromInt16(256), out[0])
	assert.Equal(t, audio.SampleFromInt16(770), out[1])
}

func TestPCMDecoderRejectsMalformed(t *testing.T) {
	dec := NewPCM(audio.NewStreamConfig(2))

	for _, packet := range [][]byte{nil, {0x01}, {0x01, 0x02}, {1, 2, 3, 4, 5, 6}} {
		_, err := dec.Decode(packet)
		assert.Error(t, err, "packet %v", packet)
	}
}

func TestPCMRoundTrip(t *testing.T) {
	cfg := audio.NewStreamConfig(2)
	enc := encode.NewPCM(cfg)
	dec := NewPCM(cfg)

	frame := make([]float32, cfg.FrameSize())
	for i := range frame {
		frame[i] = float32(i%200-100) / 200
	}

	packet, err := enc.Encode(frame)
	require.NoError(t, err)

	out, err := dec.Decode(packet)
	require.NoError(t, err)
	require.Len(t, out, cfg.FrameSize())
	assert.InDeltaSlice(t, frame, out, 1.0/16384)
}
