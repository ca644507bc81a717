// ABOUTME: Tests for the datagram transport
// ABOUTME: Exercises loopback fan-out, receive and cancellation
package transport

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func listenLoopback(t *testing.T, name string) *UDP {
	t.Helper()
	u, err := Listen("127.0.0.1:0", name, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = u.Close() })
	return u
}

type received struct {
	payload []byte
	from    netip.AddrPort
}

func collect(ctx context.Context, u *UDP) (<-chan received, <-chan error) {
	out := make(chan received, 16)
	errc := make(chan error, 1)
	go func() {
		errc <- u.Receive(ctx, func(payload []byte, from netip.AddrPort) {
			out <- received{payload: append([]byte(nil), payload...), from: from}
		})
	}()
	return out, errc
}

func TestSendToManyReachesEveryPeer(t *testing.T) {
	sender := listenLoopback(t, "send")
	a := listenLoopback(t, "a")
	b := listenLoopback(t, "b")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gotA, _ := collect(ctx, a)
	gotB, _ := collect(ctx, b)

	n := sender.SendToMany([]byte("hello"), []netip.AddrPort{a.LocalAddr(), b.LocalAddr()})
	assert.Equal(t, 2, n)

	for _, ch := range []<-chan received{gotA, gotB} {
		select {
		case r := <-ch:
			assert.Equal(t, []byte("hello"), r.payload)
			assert.Equal(t, sender.LocalAddr(), r.from)
		case <-time.After(2 * time.Second):
			t.Fatal("datagram not received")
		}
	}
}

func TestSendToManyEmptySnapshot(t *testing.T) {
	sender := listenLoopback(t, "send")
	assert.Zero(t, sender.SendToMany([]byte("x"), nil))
}

func TestReceivePreservesDatagramBoundaries(t *testing.T) {
	sender := listenLoopback(t, "send")
	rx := listenLoopback(t, "rx")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got, _ := collect(ctx, rx)

	payloads := [][]byte{{1}, {2, 2}, {3, 3, 3}}
	for _, p := range payloads {
		sender.SendToMany(p, []netip.AddrPort{rx.LocalAddr()})
	}

	for range payloads {
		select {
		case r := <-got:
			assert.Len(t, r.payload, int(r.payload[0]))
		case <-time.After(2 * time.Second):
			t.Fatal("datagram not received")
		}
	}
}

func TestReceiveStopsOnCancel(t *testing.T) {
	rx := listenLoopback(t, "rx")

	ctx, cancel := context.WithCancel(context.Background())
	_, errc := collect(ctx, rx)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("receive loop did not stop")
	}
}

func TestReceiveStopsOnClose(t *testing.T) {
	u, err := Listen("127.0.0.1:0", "rx", zap.NewNop().Sugar())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var recvErr error
	go func() {
		defer wg.Done()
		recvErr = u.Receive(context.Background(), func([]byte, netip.AddrPort) {})
	}()

	require.NoError(t, u.Close())
	wg.Wait()
	assert.NoError(t, recvErr)
}

func TestListenBadAddress(t *testing.T) {
	_, err := Listen("not-an-address", "bad", zap.NewNop().Sugar())
	assert.Error(t, err)
}
