// ABOUTME: Audio output tests
// ABOUTME: Verifies backend selection and the render reader adapter
package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

func TestBackendsImplementOutput(t *testing.T) {
	var _ Output = (*Malgo)(nil)
	var _ Output = (*Oto)(nil)
	var _ Output = (*PortAudio)(nil)
}

func TestNewSelectsBackend(t *testing.T) {
	log := zap.NewNop().Sugar()

	out, err := New(BackendMalgo, log)
	require.NoError(t, err)
	assert.IsType(t, &Malgo{}, out)

	out, err = New("", log)
	require.NoError(t, err)
	assert.IsType(t, &Malgo{}, out)

	out, err = New(BackendOto, log)
	require.NoError(t, err)
	assert.IsType(t, &Oto{}, out)

	out, err = New(BackendPortAudio, log)
	require.NoError(t, err)
	assert.IsType(t, &PortAudio{}, out)

	_, err = New("alsa", log)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestStartBeforeOpen(t *testing.T) {
	log := zap.NewNop().Sugar()
	assert.ErrorIs(t, NewMalgo(log).Start(func([]float32) {}), ErrNotOpen)
	assert.ErrorIs(t, NewOto(log).Start(func([]float32) {}), ErrNotOpen)
}

func TestClampChannels(t *testing.T) {
	assert.Equal(t, 2, clampChannels(0))
	assert.Equal(t, 1, clampChannels(1))
	assert.Equal(t, 2, clampChannels(2))
	assert.Equal(t, 2, clampChannels(6))
}

func TestFaultsKeepFirstError(t *testing.T) {
	f := newFaults()
	f.report(assert.AnError)
	f.report(ErrNotOpen)

	assert.Equal(t, assert.AnError, <-f)
	select {
	case err := <-f:
		t.Fatalf("unexpected second error %v", err)
	default:
	}
}

func TestRenderReaderWholeFrames(t *testing.T) {
	calls := 0
	r := &renderReader{
		channels: 2,
		render: func(out []float32) {
			calls++
			for i := range out {
				out[i] = 0.5
			}
		},
	}

	buf := make([]byte, 4*2*3+5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 24, n)
	assert.Equal(t, 1, calls)

	samples := make([]float32, 6)
	audio.Float32FromLE(samples, buf[:n])
	for _, s := range samples {
		assert.Equal(t, float32(0.5), s)
	}
}

func TestRenderReaderShortBuffer(t *testing.T) {
	r := &renderReader{channels: 2, render: func([]float32) { t.Fatal("render called") }}
	n, err := r.Read(make([]byte, 7))
	assert.NoError(t, err)
	assert.Zero(t, n)
}
