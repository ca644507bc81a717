// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests entry parsing and manager construction
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{Instance: "Test Walkie", ChatPort: 9000, AudioPort: 9001}, NewRegistry("x"), zap.NewNop().Sugar())
	require.NotNil(t, mgr)
	assert.Equal(t, DefaultInterval, mgr.config.Interval)
}

func TestPeerFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       `Alice\ Walkie._walkietalkie._udp.local.`,
		AddrV4:     net.IPv4(192, 168, 1, 20),
		Port:       9000,
		InfoFields: []string{"id=abc", "audio=9500"},
	}

	p, ok := peerFromEntry(entry)
	require.True(t, ok)
	assert.Equal(t, "abc", p.ID)
	assert.Equal(t, "Alice Walkie", p.Name)
	assert.Equal(t, ap("192.168.1.20:9000"), p.Chat)
	assert.Equal(t, ap("192.168.1.20:9500"), p.Audio)
}

func TestPeerFromEntryDefaultsAudioPort(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "bob._walkietalkie._udp.local.",
		AddrV4:     net.IPv4(192, 168, 1, 21),
		Port:       9000,
		InfoFields: []string{"audio=bogus"},
	}

	p, ok := peerFromEntry(entry)
	require.True(t, ok)
	assert.Equal(t, ap("192.168.1.21:9001"), p.Audio)
	assert.Empty(t, p.ID)
}

func TestPeerFromEntryRejectsUnresolved(t *testing.T) {
	_, ok := peerFromEntry(&mdns.ServiceEntry{Name: "x", Port: 9000})
	assert.False(t, ok)

	_, ok = peerFromEntry(&mdns.ServiceEntry{Name: "x", AddrV4: net.IPv4(10, 0, 0, 1)})
	assert.False(t, ok)

	_, ok = peerFromEntry(nil)
	assert.False(t, ok)
}

func TestLocalIPIsV4(t *testing.T) {
	assert.True(t, LocalIP().Is4())
}
