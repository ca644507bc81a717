// ABOUTME: Diagnostic tool that lists walkie peers on the local network
// ABOUTME: Browses mDNS for a while, prints what it found, optionally pings their chat ports
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/walkie-lan/walkie/internal/app"
	"github.com/walkie-lan/walkie/internal/discovery"
	"github.com/walkie-lan/walkie/internal/logging"
	"github.com/walkie-lan/walkie/internal/transport"
)

var (
	timeout  = flag.Duration("timeout", 6*time.Second, "How long to browse")
	name     = flag.String("name", "walkie-probe", "Name used for the ping message")
	ping     = flag.String("ping", "", "Chat message to send to every peer found")
	logLevel = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	logger, err := logging.New(logging.Options{Level: *logLevel, Console: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.Sugar()
	defer func() { _ = log.Sync() }()

	id := uuid.NewString()
	registry := discovery.NewRegistry(id)
	mgr := discovery.NewManager(discovery.Config{
		Instance: *name,
		ID:       id,
		Interval: 2 * time.Second,
	}, registry, log)
	mgr.OnNewPeer(func(p discovery.Peer) {
		fmt.Printf("found %-24s chat=%-21s audio=%s\n", p.Name, p.Chat, p.Audio)
	})

	fmt.Printf("=== Browsing %s for %s ===\n", discovery.ServiceType, *timeout)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := mgr.Browse(ctx); err != nil {
		log.Fatalf("Browse failed: %v", err)
	}

	fmt.Printf("%d peer(s)\n", registry.Len())

	if *ping == "" || registry.Len() == 0 {
		return
	}

	sock, err := transport.Listen(":0", "probe", log)
	if err != nil {
		log.Fatalf("Bind failed: %v", err)
	}
	defer sock.Close()

	n := sock.SendToMany([]byte(app.FormatChat(*name, *ping)), registry.ChatEndpoints())
	fmt.Printf("pinged %d peer(s)\n", n)
}
