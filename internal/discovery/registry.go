// ABOUTME: Registry of known walkie peers
// ABOUTME: Deduplicated, mutex-protected, snapshot-on-read peer list
package discovery

import (
	"fmt"
	"net/netip"
	"sync"
)

// Peer is a remote walkie instance
type Peer struct {
	ID    string
	Name  string
	Chat  netip.AddrPort
	Audio netip.AddrPort
}

// String renders the peer for logs and the peer list
func (p Peer) String() string {
	if p.Name == "" {
		return p.Chat.String()
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Chat)
}

// StaticPeer builds a peer from a configured chat endpoint. The audio port
// is assumed to follow the chat port.
func StaticPeer(chat netip.AddrPort) Peer {
	return Peer{
		Chat:  chat,
		Audio: netip.AddrPortFrom(chat.Addr(), chat.Port()+1),
	}
}

// Registry holds the set of peers every outgoing packet fans out to.
// Readers get copies, so a send never races a concurrent Add.
type Registry struct {
	mu       sync.RWMutex
	peers    []Peer
	selfID   string
	selfAddr map[netip.AddrPort]struct{}
}

// NewRegistry creates a registry that ignores the local instance, identified
// by its ID and any of its own chat endpoints.
func NewRegistry(selfID string, self ...netip.AddrPort) *Registry {
	r := &Registry{
		selfID:   selfID,
		selfAddr: make(map[netip.AddrPort]struct{}, len(self)),
	}
	for _, a := range self {
		r.selfAddr[a] = struct{}{}
	}
	return r
}

// Add inserts p and reports whether it was new. Self and duplicates (same
// ID or same chat endpoint) are ignored; a known ID with moved endpoints is
// updated in place.
func (r *Registry) Add(p Peer) bool {
	if p.ID != "" && p.ID == r.selfID {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.selfAddr[p.Chat]; ok {
		return false
	}

	for i, existing := range r.peers {
		if p.ID != "" && existing.ID == p.ID {
			r.peers[i] = p
			return false
		}
		if existing.Chat == p.Chat {
			if existing.ID == "" && p.ID != "" {
				r.peers[i] = p
			}
			return false
		}
	}

	r.peers = append(r.peers, p)
	return true
}

// Len returns the number of known peers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Snapshot returns a copy of the peer list
func (r *Registry) Snapshot() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Peer(nil), r.peers...)
}

// AudioEndpoints returns the voice endpoints of every peer
func (r *Registry) AudioEndpoints() []netip.AddrPort {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]netip.AddrPort, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p.Audio)
	}
	return out
}

// ChatEndpoints returns the chat endpoints of every peer
func (r *Registry) ChatEndpoints() []netip.AddrPort {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]netip.AddrPort, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p.Chat)
	}
	return out
}

// NameFor returns the name of the peer whose chat or audio endpoint matches
// addr, or addr itself when unknown.
func (r *Registry) NameFor(addr netip.AddrPort) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.peers {
		if (p.Chat == addr || p.Audio == addr) && p.Name != "" {
			return p.Name
		}
	}
	return addr.String()
}
