// ABOUTME: mDNS advertisement and browsing for walkie peers
// ABOUTME: Announces _walkietalkie._udp and feeds resolved peers into the registry
package discovery

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

const (
	// ServiceType is the DNS-SD service walkies advertise
	ServiceType = "_walkietalkie._udp"

	// DefaultInterval is the pause between browse rounds
	DefaultInterval = 5 * time.Second

	queryTimeout = 2 * time.Second

	txtID    = "id="
	txtAudio = "audio="
)

// Config holds discovery configuration
type Config struct {
	Instance  string
	ID        string
	ChatPort  int
	AudioPort int
	Interval  time.Duration
}

// Manager handles mDNS operations
type Manager struct {
	config   Config
	registry *Registry
	log      *zap.SugaredLogger
	server   *mdns.Server
	onNew    func(Peer)
}

// NewManager creates a discovery manager feeding reg
func NewManager(config Config, reg *Registry, log *zap.SugaredLogger) *Manager {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Manager{
		config:   config,
		registry: reg,
		log:      log,
	}
}

// OnNewPeer registers a callback for peers the registry did not know yet.
// Must be called before Browse.
func (m *Manager) OnNewPeer(fn func(Peer)) {
	m.onNew = fn
}

// Advertise announces this instance on the local network
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.Instance,
		ServiceType,
		"",
		"",
		m.config.ChatPort,
		ips,
		[]string{txtID + m.config.ID, txtAudio + strconv.Itoa(m.config.AudioPort)},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}
	m.server = server

	m.log.Infow("Advertising mDNS service",
		"instance", m.config.Instance,
		"service", ServiceType,
		"chat_port", m.config.ChatPort,
		"audio_port", m.config.AudioPort,
	)
	return nil
}

// Browse queries for peers every interval until ctx is cancelled
func (m *Manager) Browse(ctx context.Context) error {
	m.log.Infow("Browsing for peers", "service", ServiceType, "interval", m.config.Interval)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		m.browseOnce(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Manager) browseOnce(ctx context.Context) {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			peer, ok := peerFromEntry(entry)
			if !ok {
				m.log.Debugw("Ignoring unresolved mDNS entry", "name", entry.Name)
				continue
			}
			if peer.ID == m.config.ID {
				continue
			}
			if m.registry.Add(peer) {
				m.log.Infow("Found new peer", "name", peer.Name, "chat", peer.Chat.String(), "audio", peer.Audio.String())
				if m.onNew != nil {
					m.onNew(peer)
				}
			}
		}
	}()

	params := &mdns.QueryParam{
		Service:     ServiceType,
		Domain:      "local",
		Timeout:     queryTimeout,
		Entries:     entries,
		DisableIPv6: true,
	}

	if ctx.Err() == nil {
		if err := mdns.Query(params); err != nil {
			m.log.Warnw("mDNS query failed", "error", err)
		}
	}
	close(entries)
	<-done
}

// Stop withdraws the advertisement
func (m *Manager) Stop() {
	if m.server != nil {
		if err := m.server.Shutdown(); err != nil {
			m.log.Warnw("mDNS shutdown failed", "error", err)
		}
		m.server = nil
	}
}

// peerFromEntry turns a resolved service entry into a peer. Entries without
// an IPv4 address or port are skipped; a missing audio TXT falls back to the
// chat port plus one.
func peerFromEntry(entry *mdns.ServiceEntry) (Peer, bool) {
	if entry == nil || entry.AddrV4 == nil || entry.Port <= 0 || entry.Port > 0xFFFF {
		return Peer{}, false
	}

	addr, ok := netip.AddrFromSlice(entry.AddrV4.To4())
	if !ok {
		return Peer{}, false
	}

	p := StaticPeer(netip.AddrPortFrom(addr, uint16(entry.Port)))
	p.Name = instanceName(entry.Name)

	for _, field := range entry.InfoFields {
		switch {
		case strings.HasPrefix(field, txtID):
			p.ID = strings.TrimPrefix(field, txtID)
		case strings.HasPrefix(field, txtAudio):
			port, err := strconv.ParseUint(strings.TrimPrefix(field, txtAudio), 10, 16)
			if err == nil && port > 0 {
				p.Audio = netip.AddrPortFrom(addr, uint16(port))
			}
		}
	}

	return p, true
}

// instanceName strips the service and domain labels from a DNS-SD name
func instanceName(full string) string {
	if i := strings.Index(full, "."+ServiceType); i >= 0 {
		full = full[:i]
	}
	return strings.ReplaceAll(full, `\ `, " ")
}

// LocalIP returns the first non-loopback IPv4 address, or loopback when
// none is found.
func LocalIP() netip.Addr {
	ips, err := getLocalIPs()
	if err == nil {
		for _, ip := range ips {
			if a, ok := netip.AddrFromSlice(ip.To4()); ok {
				return a
			}
		}
	}
	return netip.AddrFrom4([4]byte{127, 0, 0, 1})
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
