// ABOUTME: Real-time pacing for synthetic capture sources
// ABOUTME: Delivers one codec frame per frame interval from a fill function
package input

import (
	"fmt"
	"sync"
	"time"

	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

// paced drives a fill function at frame cadence, standing in for the
// hardware clock a microphone would provide.
type paced struct {
	name   string
	log    *zap.SugaredLogger
	stream audio.StreamConfig
	faults faults

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func newPaced(name string, log *zap.SugaredLogger) paced {
	return paced{name: name, log: log, faults: newFaults()}
}

func (p *paced) open(channels int) {
	p.stream = audio.NewStreamConfig(channels)
}

func (p *paced) opened() bool {
	return p.stream.Channels > 0
}

// start launches the pacing goroutine. fill must write exactly len(buf)
// samples or return an error, which stops the source.
func (p *paced) start(capture CaptureFunc, fill func(buf []float32) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.opened() {
		return ErrNotOpen
	}
	if p.stop != nil {
		return nil
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	interval := time.Duration(p.stream.FrameDurationMs) * time.Millisecond
	buf := make([]float32, p.stream.FrameSize())

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			if err := fill(buf); err != nil {
				p.log.Errorw("Capture source failed", "backend", p.name, "error", err)
				p.faults.report(fmt.Errorf("%s input: %w", p.name, err))
				return
			}
			capture(buf)
		}
	}(p.stop, p.done)

	p.log.Infow("Audio input started",
		"backend", p.name,
		"channels", p.stream.Channels,
		"interval", interval,
	)
	return nil
}

// halt stops the pacing goroutine and waits for it to exit
func (p *paced) halt() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil
}

func (p *paced) Errors() <-chan error {
	return p.faults
}
