// ABOUTME: Capture framer and encoder
// ABOUTME: Slices microphone audio into codec frames and fans packets out to peers
package capture

import (
	"net/netip"
	"sync/atomic"

	"github.com/walkie-lan/walkie/pkg/audio"
	"github.com/walkie-lan/walkie/pkg/audio/encode"
	"go.uber.org/zap"
)

// PeerSource yields the endpoints to send to. Each call returns a fresh copy
// that the caller may keep without locking.
type PeerSource interface {
	Snapshot() []netip.AddrPort
}

// PeerSourceFunc adapts a function to PeerSource
type PeerSourceFunc func() []netip.AddrPort

// Snapshot calls f
func (f PeerSourceFunc) Snapshot() []netip.AddrPort {
	return f()
}

// Sender delivers one packet to every peer in a snapshot
type Sender interface {
	SendToMany(payload []byte, peers []netip.AddrPort) int
}

// Stats is a point-in-time view of the capture counters
type Stats struct {
	Callbacks    uint64
	Frames       uint64
	EncodeErrors uint64
	Datagrams    uint64
	Pending      int
}

// Framer accumulates captured samples into fixed codec frames, encodes them
// and hands each packet to the sender. Process runs on the capture callback
// and is not safe for concurrent use.
type Framer struct {
	cfg     audio.StreamConfig
	encoder encode.Encoder
	gate    *Gate
	peers   PeerSource
	sender  Sender
	log     *zap.SugaredLogger

	acc   []float32
	frame []float32

	// whether the previous callback was transmitting
	live bool

	callbacks    atomic.Uint64
	frames       atomic.Uint64
	encodeErrors atomic.Uint64
	datagrams    atomic.Uint64
	pending      atomic.Int64
}

// NewFramer creates a capture framer
func NewFramer(cfg audio.StreamConfig, enc encode.Encoder, gate *Gate, peers PeerSource, sender Sender, log *zap.SugaredLogger) *Framer {
	return &Framer{
		cfg:     cfg,
		encoder: enc,
		gate:    gate,
		peers:   peers,
		sender:  sender,
		log:     log,
		acc:     make([]float32, 0, cfg.FrameSize()*2),
		frame:   make([]float32, cfg.FrameSize()),
	}
}

// Process consumes one chunk of captured samples.
//
// Audio captured while the gate is closed or while nobody is listening is
// discarded, not queued, so transmission never starts with a stale backlog.
// A partial frame left over from the previous talk burst is dropped too.
func (f *Framer) Process(in []float32) {
	f.callbacks.Add(1)

	if !f.gate.IsOpen() {
		f.live = false
		return
	}

	peers := f.peers.Snapshot()
	if len(peers) == 0 {
		f.live = false
		return
	}

	if !f.live {
		f.acc = f.acc[:0]
		f.live = true
	}

	f.acc = append(f.acc, in...)

	frameSize := f.cfg.FrameSize()
	for len(f.acc) >= frameSize {
		copy(f.frame, f.acc[:frameSize])
		f.acc = f.acc[:copy(f.acc, f.acc[frameSize:])]

		packet, err := f.encoder.Encode(f.frame)
		if err != nil {
			f.encodeErrors.Add(1)
			f.log.Warnw("Encode error, dropping frame", "error", err)
			continue
		}

		f.frames.Add(1)
		sent := f.sender.SendToMany(packet, peers)
		f.datagrams.Add(uint64(sent))
	}

	f.pending.Store(int64(len(f.acc)))
}

// Stats returns a snapshot of the counters
func (f *Framer) Stats() Stats {
	return Stats{
		Callbacks:    f.callbacks.Load(),
		Frames:       f.frames.Load(),
		EncodeErrors: f.encodeErrors.Load(),
		Datagrams:    f.datagrams.Load(),
		Pending:      int(f.pending.Load()),
	}
}

// Close releases the encoder
func (f *Framer) Close() error {
	return f.encoder.Close()
}
