// ABOUTME: Datagram transport for chat and voice packets
// ABOUTME: Best-effort fan-out send and a deadline-polled receive loop
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxDatagram is the largest UDP payload.
	MaxDatagram = 65535

	// PollInterval bounds how long a receive blocks before re-checking
	// for cancellation.
	PollInterval = 50 * time.Millisecond
)

// Handler processes one received datagram. payload is only valid for the
// duration of the call.
type Handler func(payload []byte, from netip.AddrPort)

// UDP is one bound datagram socket
type UDP struct {
	conn *net.UDPConn
	name string
	log  *zap.SugaredLogger
}

// Listen binds a UDP socket on addr (e.g. ":9000"). name labels log lines.
func Listen(addr, name string, log *zap.SugaredLogger) (*UDP, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("bind %s socket on %s: %w", name, addr, err)
	}

	log.Infow("UDP listening", "socket", name, "addr", conn.LocalAddr().String())

	return &UDP{conn: conn, name: name, log: log}, nil
}

// LocalAddr returns the bound address
func (u *UDP) LocalAddr() netip.AddrPort {
	return u.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// SendToMany sends payload to every peer and returns how many sends
// succeeded. Failures are logged per peer and never abort the fan-out.
func (u *UDP) SendToMany(payload []byte, peers []netip.AddrPort) int {
	sent := 0
	for _, peer := range peers {
		if _, err := u.conn.WriteToUDPAddrPort(payload, peer); err != nil {
			u.log.Warnw("Failed to send datagram",
				"socket", u.name,
				"bytes", len(payload),
				"peer", peer.String(),
				"error", err,
			)
			continue
		}
		sent++
	}
	return sent
}

// Receive delivers datagrams to handler until ctx is cancelled or the socket
// is closed. Empty datagrams are skipped.
func (u *UDP) Receive(ctx context.Context, handler Handler) error {
	buf := make([]byte, MaxDatagram)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_ = u.conn.SetReadDeadline(time.Now().Add(PollInterval))
		n, from, err := u.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("%s receive: %w", u.name, err)
		}

		if n == 0 {
			u.log.Debugw("Empty datagram", "socket", u.name, "from", from.String())
			continue
		}

		handler(buf[:n], unmap(from))
	}
}

// Close closes the socket
func (u *UDP) Close() error {
	return u.conn.Close()
}

// unmap normalises IPv4-mapped IPv6 source addresses to plain IPv4
func unmap(ap netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}
