// ABOUTME: Oto-based audio output implementation
// ABOUTME: Feeds oto's pull player with an io.Reader over the render function
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

// otoBuffer is oto's device-side buffer; it bounds how far the reader runs
// ahead of the speaker.
const otoBuffer = 40 * time.Millisecond

// Oto output implementation using oto library. oto allows a single context
// per process, so an Oto output can be opened once.
type Oto struct {
	log      *zap.SugaredLogger
	otoCtx   *oto.Context
	player   *oto.Player
	channels int
	faults   faults
	done     chan struct{}
	mu       sync.Mutex
}

// NewOto creates a new Oto output
func NewOto(log *zap.SugaredLogger) Output {
	return &Oto{
		log:    log,
		faults: newFaults(),
	}
}

// Open initializes the output context. oto cannot query the device, so the
// default is stereo.
func (o *Oto) Open(channels int) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		return o.channels, nil
	}

	o.channels = clampChannels(channels)

	op := &oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: o.channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBuffer,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return 0, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx

	o.log.Infow("Audio output initialized",
		"backend", BackendOto,
		"sample_rate", audio.SampleRate,
		"channels", o.channels,
	)
	return o.channels, nil
}

// Start creates the persistent player reading from render
func (o *Oto) Start(render RenderFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return ErrNotOpen
	}
	if o.player != nil {
		return nil
	}

	o.player = o.otoCtx.NewPlayer(&renderReader{render: render, channels: o.channels})
	o.player.Play()

	o.done = make(chan struct{})
	go o.watch(o.player, o.done)
	return nil
}

// watch surfaces player failures, which oto only exposes by polling
func (o *Oto) watch(player *oto.Player, done <-chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := player.Err(); err != nil {
				o.log.Errorw("Playback failed", "backend", BackendOto, "error", err)
				o.faults.report(fmt.Errorf("oto player: %w", err))
				return
			}
		}
	}
}

// Errors reports player failures
func (o *Oto) Errors() <-chan error {
	return o.faults
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.done != nil {
		close(o.done)
		o.done = nil
	}
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			o.log.Warnw("Player close error", "error", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			o.log.Warnw("Context suspend error", "error", err)
		}
	}
	return nil
}

// renderReader adapts a RenderFunc to the io.Reader oto pulls from. Reads
// are rounded down to whole frames.
type renderReader struct {
	render   RenderFunc
	channels int
	scratch  []float32
}

func (r *renderReader) Read(p []byte) (int, error) {
	frameBytes := 4 * r.channels
	n := (len(p) / frameBytes) * r.channels
	if n == 0 {
		return 0, nil
	}

	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	samples := r.scratch[:n]
	r.render(samples)
	audio.PutFloat32LE(p, samples)

	return n * 4, nil
}
