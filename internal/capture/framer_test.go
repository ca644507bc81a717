// ABOUTME: Tests for the capture framer
// ABOUTME: Covers frame sizing, gate discard, FIFO order and encode failures
package capture

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walkie-lan/walkie/pkg/audio"
	"go.uber.org/zap"
)

// recordingEncoder keeps a copy of every frame it is asked to encode.
type recordingEncoder struct {
	frames [][]float32
	failOn map[int]bool
}

func (e *recordingEncoder) Encode(frame []float32) ([]byte, error) {
	idx := len(e.frames)
	e.frames = append(e.frames, append([]float32(nil), frame...))
	if e.failOn[idx] {
		return nil, errors.New("encoder exploded")
	}
	return []byte{byte(idx)}, nil
}

func (e *recordingEncoder) Close() error { return nil }

type sent struct {
	payload []byte
	peers   []netip.AddrPort
}

type recordingSender struct {
	sent []sent
}

func (s *recordingSender) SendToMany(payload []byte, peers []netip.AddrPort) int {
	s.sent = append(s.sent, sent{payload: payload, peers: peers})
	return len(peers)
}

var twoPeers = []netip.AddrPort{
	netip.MustParseAddrPort("192.168.1.10:9001"),
	netip.MustParseAddrPort("192.168.1.11:9001"),
}

func newTestFramer(channels int, peers []netip.AddrPort) (*Framer, *Gate, *recordingEncoder, *recordingSender) {
	cfg := audio.NewStreamConfig(channels)
	gate := NewGate()
	enc := &recordingEncoder{failOn: map[int]bool{}}
	snd := &recordingSender{}
	src := PeerSourceFunc(func() []netip.AddrPort {
		return append([]netip.AddrPort(nil), peers...)
	})
	return NewFramer(cfg, enc, gate, src, snd, zap.NewNop().Sugar()), gate, enc, snd
}

func ramp(from, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(from + i)
	}
	return out
}

func TestFrameSizeInvariant(t *testing.T) {
	tests := []struct {
		channels  int
		frameSize int
	}{
		{channels: 2, frameSize: 1920},
		{channels: 1, frameSize: 960},
	}

	for _, tt := range tests {
		f, gate, enc, _ := newTestFramer(tt.channels, twoPeers)
		gate.Set(true)

		// irregular device chunks: 5.5 frames in total
		total := 0
		for _, n := range []int{100, 1500, 3, 2000, 700, 2257} {
			f.Process(ramp(total, n*tt.channels/2))
			total += n * tt.channels / 2
		}

		require.Len(t, enc.frames, total/tt.frameSize, "channels=%d", tt.channels)
		for i, frame := range enc.frames {
			assert.Len(t, frame, tt.frameSize, "frame %d", i)
		}
		assert.Equal(t, total%tt.frameSize, f.Stats().Pending)
	}
}

func TestFIFOOrder(t *testing.T) {
	f, gate, enc, _ := newTestFramer(1, twoPeers)
	gate.Set(true)

	f.Process(ramp(0, 500))
	f.Process(ramp(500, 2000))

	require.Len(t, enc.frames, 2)
	assert.Equal(t, ramp(0, 960), enc.frames[0])
	assert.Equal(t, ramp(960, 960), enc.frames[1])
}

func TestGateClosedDiscards(t *testing.T) {
	f, gate, enc, snd := newTestFramer(1, twoPeers)

	f.Process(ramp(0, 5000))
	assert.Empty(t, enc.frames)
	assert.Zero(t, f.Stats().Pending)

	// opening the gate later does not replay what was discarded
	gate.Set(true)
	f.Process(ramp(10000, 100))
	assert.Empty(t, enc.frames)
	assert.Equal(t, 100, f.Stats().Pending)

	f.Process(ramp(10100, 860))
	require.Len(t, enc.frames, 1)
	assert.Equal(t, ramp(10000, 960), enc.frames[0])
	assert.Len(t, snd.sent, 1)
}

func TestResumeDropsPartialFrame(t *testing.T) {
	f, gate, enc, _ := newTestFramer(1, twoPeers)

	gate.Set(true)
	f.Process(ramp(0, 500))
	assert.Equal(t, 500, f.Stats().Pending)

	gate.Set(false)
	f.Process(ramp(500, 5000))

	gate.Set(true)
	f.Process(ramp(90000, 960))

	require.Len(t, enc.frames, 1)
	assert.Equal(t, ramp(90000, 960), enc.frames[0])
	assert.Zero(t, f.Stats().Pending)
}

func TestPeersReturningDropsPartialFrame(t *testing.T) {
	peers := twoPeers
	cfg := audio.NewStreamConfig(1)
	gate := NewGate()
	enc := &recordingEncoder{failOn: map[int]bool{}}
	src := PeerSourceFunc(func() []netip.AddrPort { return peers })
	f := NewFramer(cfg, enc, gate, src, &recordingSender{}, zap.NewNop().Sugar())
	gate.Set(true)

	f.Process(ramp(0, 300))
	peers = nil
	f.Process(ramp(300, 300))
	peers = twoPeers
	f.Process(ramp(5000, 960))

	require.Len(t, enc.frames, 1)
	assert.Equal(t, ramp(5000, 960), enc.frames[0])
}

func TestNoPeersDiscards(t *testing.T) {
	f, gate, enc, snd := newTestFramer(1, nil)
	gate.Set(true)

	f.Process(ramp(0, 5000))
	assert.Empty(t, enc.frames)
	assert.Empty(t, snd.sent)
	assert.Zero(t, f.Stats().Pending)
}

func TestPacketsFanOutToSnapshot(t *testing.T) {
	f, gate, _, snd := newTestFramer(1, twoPeers)
	gate.Set(true)

	f.Process(ramp(0, 960*3))

	require.Len(t, snd.sent, 3)
	for i, s := range snd.sent {
		assert.Equal(t, []byte{byte(i)}, s.payload)
		assert.Equal(t, twoPeers, s.peers)
	}
	stats := f.Stats()
	assert.Equal(t, uint64(3), stats.Frames)
	assert.Equal(t, uint64(6), stats.Datagrams)
}

func TestEncodeErrorDropsOnlyThatFrame(t *testing.T) {
	f, gate, enc, snd := newTestFramer(1, twoPeers)
	enc.failOn[1] = true
	gate.Set(true)

	f.Process(ramp(0, 960*3))

	assert.Len(t, enc.frames, 3)
	require.Len(t, snd.sent, 2)
	assert.Equal(t, []byte{0}, snd.sent[0].payload)
	assert.Equal(t, []byte{2}, snd.sent[1].payload)
	assert.Equal(t, uint64(1), f.Stats().EncodeErrors)
}
