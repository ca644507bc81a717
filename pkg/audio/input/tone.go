// ABOUTME: Test tone generator for audio input
// ABOUTME: Generates a 440Hz sine wave paced at frame cadence
package input

import (
	"math"

	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

// ToneFrequency is the generated pitch (A4)
const ToneFrequency = 440.0

// Tone generates a continuous sine wave instead of capturing a device
type Tone struct {
	paced
	sampleIndex uint64
	frequency   float64
}

// NewTone creates a new test tone generator
func NewTone(log *zap.SugaredLogger) Input {
	return &Tone{
		paced:     newPaced(BackendTone, log),
		frequency: ToneFrequency,
	}
}

// Open sets the channel count
func (t *Tone) Open(channels int) error {
	t.open(channels)
	return nil
}

// Start begins generating
func (t *Tone) Start(capture CaptureFunc) error {
	return t.start(capture, t.fill)
}

// fill writes the next stretch of the sine wave at 50% volume, duplicated
// across channels
func (t *Tone) fill(samples []float32) error {
	channels := t.stream.Channels
	frames := len(samples) / channels

	for i := 0; i < frames; i++ {
		ts := float64(t.sampleIndex+uint64(i)) / float64(audio.SampleRate)
		v := float32(0.5 * math.Sin(2*math.Pi*t.frequency*ts))
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = v
		}
	}

	t.sampleIndex += uint64(frames)
	return nil
}

// Close stops generating
func (t *Tone) Close() error {
	t.halt()
	return nil
}
