// ABOUTME: Entry point for the walkie push-to-talk link
// ABOUTME: Parses CLI flags, builds config and logging, and runs the app
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/walkie-lan/walkie/internal/app"
	"github.com/walkie-lan/walkie/internal/config"
	"github.com/walkie-lan/walkie/internal/logging"
	"github.com/walkie-lan/walkie/internal/version"
)

var (
	configPath  = flag.String("config", "", "YAML config file")
	name        = flag.String("name", "", "Instance name shown to peers (default: hostname-walkie)")
	port        = flag.Int("port", config.DefaultPort, "Chat port; voice uses port+1")
	codec       = flag.String("codec", "opus", "Voice codec (opus, pcm)")
	outBackend  = flag.String("output", "malgo", "Output backend (malgo, oto, portaudio)")
	inBackend   = flag.String("input", "malgo", "Input backend (malgo, portaudio, tone, file)")
	inFile      = flag.String("file", "", "Audio file for -input file (.mp3, .flac)")
	peers       = flag.String("peers", "", "Comma-separated static peers (ip:port)")
	logFile     = flag.String("log-file", "walkie.log", "Log file path")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	transmit    = flag.Bool("transmit", false, "Open the transmit gate at startup")
	noDiscovery = flag.Bool("no-discovery", false, "Disable mDNS advertisement and browsing")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.Init(logging.Options{
		File:    cfg.Log.File,
		Level:   cfg.Log.Level,
		Console: cfg.NoTUI,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if cfg.NoTUI {
		logger.Infow("Starting walkie", "name", cfg.Name, "version", version.Version)
		logger.Infow("TUI disabled - streaming logs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, app.Options{Transmit: *transmit}, logger).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "walkie: %v\n", err)
		log.Fatalf("Walkie failed: %v", err)
	}
}

// loadConfig layers defaults, the config file, .env and WALKIE_* variables,
// then flags the user set explicitly
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = *name
		case "port":
			cfg.Port = *port
		case "codec":
			cfg.Codec = *codec
		case "output":
			cfg.Output.Backend = *outBackend
		case "input":
			cfg.Input.Backend = *inBackend
		case "file":
			cfg.Input.File = *inFile
		case "peers":
			cfg.Peers = splitList(*peers)
		case "log-file":
			cfg.Log.File = *logFile
		case "log-level":
			cfg.Log.Level = *logLevel
		case "no-tui":
			cfg.NoTUI = *noTUI
		case "no-discovery":
			cfg.Discovery.Enabled = !*noDiscovery
		}
	})

	if err := config.Validate(cfg); err != nil {
		return nil, errors.Join(errors.New("invalid configuration"), err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
