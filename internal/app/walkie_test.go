// ABOUTME: Tests for the walkie application wiring
// ABOUTME: Runs two instances over loopback with fake audio devices
package app

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walkie-lan/walkie/internal/config"
	"github.com/walkie-lan/walkie/internal/ui"
	"github.com/walkie-lan/walkie/pkg/audio/input"
	"github.com/walkie-lan/walkie/pkg/audio/output"
	"go.uber.org/zap"
)

// fakeOutput lets the test drive the render callback by hand
type fakeOutput struct {
	channels int
	mu       sync.Mutex
	render   output.RenderFunc
	errs     chan error
}

func newFakeOutput(channels int) *fakeOutput {
	return &fakeOutput{channels: channels, errs: make(chan error, 1)}
}

func (o *fakeOutput) Open(int) (int, error) { return o.channels, nil }
func (o *fakeOutput) Start(render output.RenderFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.render = render
	return nil
}
func (o *fakeOutput) Errors() <-chan error { return o.errs }
func (o *fakeOutput) Close() error         { return nil }

func (o *fakeOutput) pull(n int) []float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	buf := make([]float32, n)
	o.render(buf)
	return buf
}

// fakeInput lets the test push captured samples by hand
type fakeInput struct {
	mu       sync.Mutex
	channels int
	capture  input.CaptureFunc
}

func (i *fakeInput) Open(channels int) error { i.channels = channels; return nil }
func (i *fakeInput) Start(capture input.CaptureFunc) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.capture = capture
	return nil
}
func (i *fakeInput) Errors() <-chan error { return nil }
func (i *fakeInput) Close() error         { return nil }

func (i *fakeInput) push(samples []float32) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.capture(samples)
}

// freePortPair finds p such that UDP p and p+1 are both free
func freePortPair(t *testing.T) int {
	t.Helper()
	for attempt := 0; attempt < 50; attempt++ {
		a, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
		require.NoError(t, err)
		port := a.LocalAddr().(*net.UDPAddr).Port
		b, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port + 1})
		a.Close()
		if err == nil {
			b.Close()
			return port
		}
	}
	t.Fatal("no free port pair")
	return 0
}

type harness struct {
	app    *App
	out    *fakeOutput
	in     *fakeInput
	events chan string
	cancel context.CancelFunc
	done   chan error
}

func startApp(t *testing.T, name string, port, peerPort int, transmit bool) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.Name = name
	cfg.Port = port
	cfg.Codec = "pcm"
	cfg.NoTUI = true
	cfg.Discovery.Enabled = false
	cfg.Peers = []string{fmt.Sprintf("127.0.0.1:%d", peerPort)}
	require.NoError(t, config.Validate(cfg))

	h := &harness{
		out:    newFakeOutput(1),
		in:     &fakeInput{},
		events: make(chan string, 16),
		done:   make(chan error, 1),
	}
	h.app = New(cfg, Options{
		Transmit: transmit,
		Output:   h.out,
		Input:    h.in,
		Notify: func(msg tea.Msg) {
			if ev, ok := msg.(ui.EventMsg); ok {
				h.events <- ev.Text
			}
		},
	}, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.app.Run(ctx) }()

	select {
	case <-h.app.Ready():
	case err := <-h.done:
		t.Fatalf("%s failed to start: %v", name, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not start", name)
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-h.done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Errorf("%s did not stop", name)
		}
	})
	return h
}

func TestVoiceFlowsBetweenInstances(t *testing.T) {
	alicePort := freePortPair(t)
	bobPort := freePortPair(t)

	alice := startApp(t, "alice", alicePort, bobPort, true)
	bob := startApp(t, "bob", bobPort, alicePort, false)

	assert.Equal(t, 1, alice.in.channels)

	frame := make([]float32, 960)
	for i := range frame {
		frame[i] = 0.25
	}
	alice.in.push(frame)

	assert.Eventually(t, func() bool {
		return bob.app.Stats().Playout.Packets == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := bob.out.pull(960)
	for i, s := range got {
		require.InDelta(t, 0.25, s, 2.0/32768, "sample %d", i)
	}

	// bob's gate is closed: nothing comes back
	bob.in.push(frame)
	assert.Zero(t, bob.app.Stats().Capture.Frames)
	assert.Equal(t, uint64(1), alice.app.Stats().Capture.Datagrams)
}

func TestGateOpensLater(t *testing.T) {
	alicePort := freePortPair(t)
	bobPort := freePortPair(t)

	alice := startApp(t, "alice", alicePort, bobPort, false)
	bob := startApp(t, "bob", bobPort, alicePort, false)

	frame := make([]float32, 960)
	alice.in.push(frame)
	assert.Zero(t, alice.app.Stats().Capture.Frames)

	alice.app.Gate().Set(true)
	alice.in.push(frame)

	assert.Eventually(t, func() bool {
		return bob.app.Stats().Playout.Packets == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChatBetweenInstances(t *testing.T) {
	alicePort := freePortPair(t)
	bobPort := freePortPair(t)

	alice := startApp(t, "alice", alicePort, bobPort, false)
	bob := startApp(t, "bob", bobPort, alicePort, false)

	assert.Equal(t, 1, alice.app.SendChat("  over  "))

	select {
	case text := <-bob.events:
		assert.Equal(t, "alice says over", text)
	case <-time.After(2 * time.Second):
		t.Fatal("chat not received")
	}

	assert.Zero(t, alice.app.SendChat("   "))
}

func TestDeviceFailureIsReported(t *testing.T) {
	alicePort := freePortPair(t)
	alice := startApp(t, "alice", alicePort, alicePort+10, false)

	alice.out.errs <- assert.AnError

	select {
	case text := <-alice.events:
		assert.Contains(t, text, "Output failed")
	case <-time.After(2 * time.Second):
		t.Fatal("device failure not surfaced")
	}
}

func TestRunFailsOnBusyPort(t *testing.T) {
	port := freePortPair(t)
	busy, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	require.NoError(t, err)
	defer busy.Close()

	cfg := config.Default()
	cfg.Port = port
	cfg.Codec = "pcm"
	cfg.NoTUI = true
	cfg.Discovery.Enabled = false

	a := New(cfg, Options{Output: newFakeOutput(2), Input: &fakeInput{}}, zap.NewNop().Sugar())
	assert.Error(t, a.Run(context.Background()))
}

func TestFormatChat(t *testing.T) {
	assert.Equal(t, "bob says hello there", FormatChat("bob", " hello there\n"))
}
