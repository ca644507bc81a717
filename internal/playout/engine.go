// ABOUTME: Jitter buffer and playout engine
// ABOUTME: Turns bursty framed packets into a continuous PCM feed for the output device
package playout

import (
	"sync"
	"sync/atomic"

	"github.com/walkie-lan/walkie/pkg/audio"
	"github.com/walkie-lan/walkie/pkg/audio/decode"
	"github.com/walkie-lan/walkie/pkg/framing"
	"go.uber.org/zap"
)

// DefaultStatsEvery is the callback decimation for diagnostic logs.
const DefaultStatsEvery = 100

// Config configures an Engine
type Config struct {
	Stream audio.StreamConfig

	// MaxBufferMs caps decoded audio waiting for playout. Zero leaves the
	// ring unbounded; otherwise the oldest samples are dropped.
	MaxBufferMs int

	// StatsEvery is the number of callbacks between diagnostic logs.
	StatsEvery uint64
}

// Stats is a point-in-time view of the playout counters
type Stats struct {
	Callbacks      uint64
	Packets        uint64
	DecodeErrors   uint64
	Rejected       uint64
	SamplesWritten uint64
	SilenceFilled  uint64
	Dropped        uint64
	Depth          int
}

// Engine owns the framed byte queue fed by the network receiver and the
// PCM ring drained by the output device callback.
type Engine struct {
	cfg      Config
	log      *zap.SugaredLogger
	decoder  decode.Decoder
	maxDepth int

	queueMu sync.Mutex
	queue   *framing.Queue

	ring *RingBuffer

	// callback-local scratch; only Render touches it
	pending [][]byte

	callbacks      atomic.Uint64
	packets        atomic.Uint64
	decodeErrors   atomic.Uint64
	rejected       atomic.Uint64
	samplesWritten atomic.Uint64
	silenceFilled  atomic.Uint64
	dropped        atomic.Uint64
}

// New creates a playout engine decoding with dec
func New(cfg Config, dec decode.Decoder, log *zap.SugaredLogger) *Engine {
	if cfg.StatsEvery == 0 {
		cfg.StatsEvery = DefaultStatsEvery
	}

	e := &Engine{
		cfg:     cfg,
		log:     log,
		decoder: dec,
		queue:   framing.NewQueue(),
		ring:    NewRingBuffer(cfg.Stream.SamplesForDuration(500)),
	}
	if cfg.MaxBufferMs > 0 {
		e.maxDepth = cfg.Stream.SamplesForDuration(cfg.MaxBufferMs)
	}
	return e
}

// Push queues one received datagram. One datagram is one compressed packet.
func (e *Engine) Push(datagram []byte) error {
	e.queueMu.Lock()
	err := e.queue.Push(datagram)
	e.queueMu.Unlock()

	if err != nil {
		e.rejected.Add(1)
		return err
	}
	e.packets.Add(1)
	return nil
}

// Render fills out with the next samples, padding with silence when the
// ring runs dry. It is called from the device callback and never blocks
// beyond the short queue and ring critical sections.
func (e *Engine) Render(out []float32) {
	count := e.callbacks.Add(1)

	e.drainQueue()
	e.decodePending()
	e.trim()

	written := e.ring.Read(out)
	e.samplesWritten.Add(uint64(written))
	e.silenceFilled.Add(uint64(len(out) - written))

	if count%e.cfg.StatsEvery == 0 {
		e.log.Infow("Output callback",
			"callback", count,
			"written", written,
			"silence", len(out)-written,
			"pcm_buffer", e.ring.Available(),
		)
	}
}

// drainQueue moves every complete payload out of the queue. The decode work
// happens after the lock is released so the receiver is never held up.
func (e *Engine) drainQueue() {
	e.pending = e.pending[:0]

	e.queueMu.Lock()
	for {
		payload, ok := e.queue.TryExtract()
		if !ok {
			break
		}
		e.pending = append(e.pending, payload)
	}
	e.queueMu.Unlock()
}

func (e *Engine) decodePending() {
	for i, payload := range e.pending {
		samples, err := e.decoder.Decode(payload)
		if err != nil {
			e.decodeErrors.Add(1)
			e.log.Warnw("Decode error, skipping packet", "bytes", len(payload), "error", err)
		} else {
			e.ring.Write(samples)
		}
		e.pending[i] = nil
	}
}

func (e *Engine) trim() {
	if e.maxDepth == 0 {
		return
	}
	if over := e.ring.Available() - e.maxDepth; over > 0 {
		// keep whole sample frames so channels stay aligned
		over += (e.cfg.Stream.Channels - over%e.cfg.Stream.Channels) % e.cfg.Stream.Channels
		e.dropped.Add(uint64(e.ring.Discard(over)))
	}
}

// Depth returns the number of decoded samples waiting for playout
func (e *Engine) Depth() int {
	return e.ring.Available()
}

// QueuedBytes returns the number of framed bytes not yet decoded
func (e *Engine) QueuedBytes() int {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	return e.queue.Len()
}

// Stats returns a snapshot of the counters
func (e *Engine) Stats() Stats {
	return Stats{
		Callbacks:      e.callbacks.Load(),
		Packets:        e.packets.Load(),
		DecodeErrors:   e.decodeErrors.Load(),
		Rejected:       e.rejected.Load(),
		SamplesWritten: e.samplesWritten.Load(),
		SilenceFilled:  e.silenceFilled.Load(),
		Dropped:        e.dropped.Load(),
		Depth:          e.ring.Available(),
	}
}

// Close releases the decoder
func (e *Engine) Close() error {
	return e.decoder.Close()
}
