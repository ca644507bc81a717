// ABOUTME: Main walkie application orchestration
// ABOUTME: Wires sockets, devices, playout, capture, discovery and the TUI together
package app

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/walkie-lan/walkie/internal/capture"
	"github.com/walkie-lan/walkie/internal/config"
	"github.com/walkie-lan/walkie/internal/discovery"
	"github.com/walkie-lan/walkie/internal/playout"
	"github.com/walkie-lan/walkie/internal/transport"
	"github.com/walkie-lan/walkie/internal/ui"
	"github.com/walkie-lan/walkie/internal/version"
	"github.com/walkie-lan/walkie/pkg/audio"
	"github.com/walkie-lan/walkie/pkg/audio/decode"
	"github.com/walkie-lan/walkie/pkg/audio/encode"
	"github.com/walkie-lan/walkie/pkg/audio/input"
	"github.com/walkie-lan/walkie/pkg/audio/output"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// statsInterval is how often the TUI connection panel refreshes
const statsInterval = 500 * time.Millisecond

// errQuit ends the run group when the user quits from the TUI
var errQuit = errors.New("quit requested")

// Options carries runtime choices that are not part of the config file
type Options struct {
	// Transmit opens the gate at startup
	Transmit bool

	// Output and Input override the configured device backends
	Output output.Output
	Input  input.Input

	// Notify receives view messages. When nil and the TUI is enabled the
	// TUI program receives them.
	Notify func(tea.Msg)
}

// Stats is a snapshot of both pipelines
type Stats struct {
	Playout playout.Stats
	Capture capture.Stats
	Peers   int
}

// App is one walkie instance
type App struct {
	cfg  *config.Config
	opts Options
	log  *zap.SugaredLogger
	id   string

	gate     *capture.Gate
	registry *discovery.Registry
	controls *ui.Controls

	chat   *transport.UDP
	voice  *transport.UDP
	out    output.Output
	in     input.Input
	engine *playout.Engine
	framer *capture.Framer
	disc   *discovery.Manager
	stream audio.StreamConfig

	ready chan struct{}
}

// New creates an instance from a validated config
func New(cfg *config.Config, opts Options, log *zap.SugaredLogger) *App {
	return &App{
		cfg:      cfg,
		opts:     opts,
		log:      log,
		id:       uuid.NewString(),
		gate:     capture.NewGate(),
		controls: ui.NewControls(),
		ready:    make(chan struct{}),
	}
}

// Gate exposes the push-to-talk latch
func (a *App) Gate() *capture.Gate {
	return a.gate
}

// Ready is closed once both pipelines are running
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Stats returns current pipeline counters. Only valid after Ready.
func (a *App) Stats() Stats {
	return Stats{
		Playout: a.engine.Stats(),
		Capture: a.framer.Stats(),
		Peers:   a.registry.Len(),
	}
}

// Run starts every component and blocks until ctx is cancelled, the user
// quits, or a component fails.
func (a *App) Run(ctx context.Context) error {
	defer a.shutdown()

	if err := a.setup(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	notify := a.opts.Notify
	var prog *tea.Program
	if notify == nil && !a.cfg.NoTUI {
		prog = ui.Run(a.info(), a.gate, a.controls)
		notify = func(msg tea.Msg) { prog.Send(msg) }
	}
	if notify == nil {
		notify = func(tea.Msg) {}
	}

	a.disc.OnNewPeer(func(p discovery.Peer) {
		notify(ui.EventMsg{Text: "Found peer " + p.String()})
	})

	if a.opts.Transmit {
		a.gate.Set(true)
	}

	if err := a.startAudio(); err != nil {
		return err
	}
	close(a.ready)

	a.log.Infow("Walkie running",
		"name", a.cfg.Name,
		"id", a.id,
		"chat", a.chat.LocalAddr().String(),
		"voice", a.voice.LocalAddr().String(),
		"stream", a.stream.String(),
		"codec", a.cfg.Codec,
		"transmit", a.gate.IsOpen(),
	)

	g.Go(func() error {
		return a.voice.Receive(gctx, func(payload []byte, from netip.AddrPort) {
			if err := a.engine.Push(payload); err != nil {
				a.log.Debugw("Rejected voice datagram", "from", a.registry.NameFor(from), "bytes", len(payload), "error", err)
			}
		})
	})

	g.Go(func() error {
		return a.chat.Receive(gctx, func(payload []byte, from netip.AddrPort) {
			text := strings.TrimSpace(string(payload))
			if text == "" {
				return
			}
			a.log.Infow("Chat received", "from", a.registry.NameFor(from), "text", text)
			notify(ui.EventMsg{Text: text})
		})
	})

	if a.cfg.Discovery.Enabled {
		if err := a.disc.Advertise(); err != nil {
			a.log.Warnw("mDNS advertisement failed, continuing with static peers", "error", err)
		}
		g.Go(func() error { return a.disc.Browse(gctx) })
	}

	g.Go(func() error {
		a.statsLoop(gctx, notify)
		return nil
	})

	g.Go(func() error {
		a.watchDevices(gctx, notify)
		return nil
	})

	g.Go(func() error {
		return a.controlLoop(gctx)
	})

	if prog != nil {
		g.Go(func() error {
			if _, err := prog.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return errQuit
		})
		g.Go(func() error {
			<-gctx.Done()
			prog.Quit()
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, errQuit) {
		a.log.Infow("Received quit signal from TUI")
		return nil
	}
	return err
}

// setup binds sockets, negotiates the stream and builds both pipelines
func (a *App) setup() error {
	var err error

	a.chat, err = transport.Listen(fmt.Sprintf(":%d", a.cfg.Port), "chat", a.log)
	if err != nil {
		return err
	}
	a.voice, err = transport.Listen(fmt.Sprintf(":%d", a.cfg.AudioPort()), "voice", a.log)
	if err != nil {
		return err
	}

	localIP := discovery.LocalIP()
	chatPort := uint16(a.cfg.Port)
	a.registry = discovery.NewRegistry(a.id,
		netip.AddrPortFrom(localIP, chatPort),
		netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, 1}), chatPort),
	)
	for _, p := range a.cfg.Peers {
		ap, err := config.ParsePeer(p)
		if err != nil {
			return err
		}
		if a.registry.Add(discovery.StaticPeer(ap)) {
			a.log.Infow("Added static peer", "chat", ap.String())
		}
	}

	a.disc = discovery.NewManager(discovery.Config{
		Instance:  a.cfg.Name,
		ID:        a.id,
		ChatPort:  a.cfg.Port,
		AudioPort: a.cfg.AudioPort(),
		Interval:  a.cfg.Discovery.Interval,
	}, a.registry, a.log)

	a.out = a.opts.Output
	if a.out == nil {
		if a.out, err = output.New(a.cfg.Output.Backend, a.log); err != nil {
			return err
		}
	}
	channels, err := a.out.Open(0)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	a.stream = audio.NewStreamConfig(audio.ClampChannels(channels))
	if err := a.stream.Validate(); err != nil {
		return err
	}

	dec, err := decode.New(a.cfg.Codec, a.stream)
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	a.engine = playout.New(playout.Config{
		Stream:      a.stream,
		MaxBufferMs: a.cfg.Playout.MaxBufferMs,
		StatsEvery:  a.cfg.Playout.StatsEvery,
	}, dec, a.log)

	enc, err := encode.New(a.cfg.Codec, a.stream, a.cfg.Bitrate)
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	a.framer = capture.NewFramer(a.stream, enc, a.gate,
		capture.PeerSourceFunc(a.registry.AudioEndpoints), a.voice, a.log)

	a.in = a.opts.Input
	if a.in == nil {
		a.in, err = input.New(input.Config{Backend: a.cfg.Input.Backend, File: a.cfg.Input.File}, a.log)
		if err != nil {
			return err
		}
	}
	if err := a.in.Open(a.stream.Channels); err != nil {
		return fmt.Errorf("open input: %w", err)
	}

	return nil
}

// startAudio starts playback then capture
func (a *App) startAudio() error {
	if err := a.out.Start(a.engine.Render); err != nil {
		return fmt.Errorf("start output: %w", err)
	}
	if err := a.in.Start(a.framer.Process); err != nil {
		return fmt.Errorf("start input: %w", err)
	}
	return nil
}

// controlLoop relays chat typed in the TUI and its quit request
func (a *App) controlLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.controls.Quit:
			return errQuit
		case msg := <-a.controls.Chat:
			a.SendChat(msg)
		}
	}
}

// SendChat broadcasts "<name> says <msg>" to every peer's chat port and
// returns how many peers it reached
func (a *App) SendChat(msg string) int {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return 0
	}
	payload := []byte(FormatChat(a.cfg.Name, msg))
	n := a.chat.SendToMany(payload, a.registry.ChatEndpoints())
	a.log.Infow("Chat sent", "text", msg, "peers", n)
	return n
}

// FormatChat renders a chat line the way every peer displays it
func FormatChat(name, msg string) string {
	return fmt.Sprintf("%s says %s", name, strings.TrimSpace(msg))
}

// statsLoop periodically updates the view with pipeline statistics
func (a *App) statsLoop(ctx context.Context, notify func(tea.Msg)) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			notify(a.statsMsg())
		}
	}
}

func (a *App) statsMsg() ui.StatsMsg {
	ps := a.engine.Stats()
	cs := a.framer.Stats()

	peers := a.registry.Snapshot()
	names := make([]string, 0, len(peers))
	for _, p := range peers {
		names = append(names, p.String())
	}

	return ui.StatsMsg{
		Peers:        names,
		BufferDepth:  ps.Depth,
		Packets:      ps.Packets,
		DecodeErrors: ps.DecodeErrors,
		Frames:       cs.Frames,
		Sent:         cs.Datagrams,
	}
}

// watchDevices surfaces mid-stream device failures without stopping the
// rest of the instance
func (a *App) watchDevices(ctx context.Context, notify func(tea.Msg)) {
	outErrs := a.out.Errors()
	inErrs := a.in.Errors()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-outErrs:
			a.log.Errorw("Output stream failed", "error", err)
			notify(ui.EventMsg{Text: "Output failed: " + err.Error()})
			outErrs = nil
		case err := <-inErrs:
			a.log.Errorw("Input stream failed", "error", err)
			notify(ui.EventMsg{Text: "Input failed: " + err.Error()})
			inErrs = nil
		}
	}
}

func (a *App) info() ui.InfoMsg {
	return ui.InfoMsg{
		Instance:  a.cfg.Name,
		LocalIP:   discovery.LocalIP().String(),
		ChatPort:  a.cfg.Port,
		AudioPort: a.cfg.AudioPort(),
		Codec:     a.cfg.Codec,
		Channels:  a.stream.Channels,
		Version:   version.Version,
	}
}

// shutdown releases everything setup acquired, capture first so no packet
// is encoded against a closed socket
func (a *App) shutdown() {
	if a.in != nil {
		if err := a.in.Close(); err != nil {
			a.log.Warnw("Error closing input", "error", err)
		}
	}
	if a.out != nil {
		if err := a.out.Close(); err != nil {
			a.log.Warnw("Error closing output", "error", err)
		}
	}
	if a.disc != nil {
		a.disc.Stop()
	}
	if a.framer != nil {
		_ = a.framer.Close()
	}
	if a.engine != nil {
		_ = a.engine.Close()
	}
	for _, sock := range []*transport.UDP{a.voice, a.chat} {
		if sock != nil {
			_ = sock.Close()
		}
	}
	a.log.Infow("Walkie stopped")
}
