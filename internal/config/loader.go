// ABOUTME: Configuration loading and validation
// ABOUTME: Reads YAML, applies .env and WALKIE_* overrides, validates the result
package config

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/walkie-lan/walkie/pkg/audio"
	"github.com/walkie-lan/walkie/pkg/audio/input"
	"github.com/walkie-lan/walkie/pkg/audio/output"
	"gopkg.in/yaml.v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Load reads the YAML configuration file at path over the defaults.
// The result is not validated; call Validate after applying overrides.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults.
// Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding ones already set. Missing files are not
// an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %q: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from WALKIE_* variables using lookup. Pass
// os.LookupEnv in production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	unum := func(key string, dst *uint64) {
		if v, ok := lookup(key); ok {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("WALKIE_NAME", &cfg.Name)
	num("WALKIE_PORT", &cfg.Port)
	str("WALKIE_CODEC", &cfg.Codec)
	num("WALKIE_BITRATE", &cfg.Bitrate)
	str("WALKIE_OUTPUT_BACKEND", &cfg.Output.Backend)
	str("WALKIE_INPUT_BACKEND", &cfg.Input.Backend)
	str("WALKIE_INPUT_FILE", &cfg.Input.File)
	num("WALKIE_PLAYOUT_MAX_BUFFER_MS", &cfg.Playout.MaxBufferMs)
	unum("WALKIE_PLAYOUT_STATS_EVERY", &cfg.Playout.StatsEvery)
	flag("WALKIE_DISCOVERY_ENABLED", &cfg.Discovery.Enabled)
	str("WALKIE_LOG_FILE", &cfg.Log.File)
	str("WALKIE_LOG_LEVEL", &cfg.Log.Level)
	flag("WALKIE_NO_TUI", &cfg.NoTUI)

	if v, ok := lookup("WALKIE_DISCOVERY_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("WALKIE_DISCOVERY_INTERVAL: %w", err))
		} else {
			cfg.Discovery.Interval = d
		}
	}
	if v, ok := lookup("WALKIE_PEERS"); ok {
		cfg.Peers = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Peers = append(cfg.Peers, p)
			}
		}
	}

	return errors.Join(errs...)
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if cfg.Port < 1 || cfg.Port > 65534 {
		errs = append(errs, fmt.Errorf("port %d is out of range [1, 65534]", cfg.Port))
	}
	if codecs := audio.Codecs(); !slices.Contains(codecs, cfg.Codec) {
		errs = append(errs, fmt.Errorf("codec %q is invalid; valid values: %s", cfg.Codec, strings.Join(codecs, ", ")))
	}
	if cfg.Codec == audio.CodecOpus && (cfg.Bitrate < 6000 || cfg.Bitrate > 510000) {
		errs = append(errs, fmt.Errorf("bitrate %d is out of range [6000, 510000]", cfg.Bitrate))
	}
	if backends := output.Backends(); !slices.Contains(backends, cfg.Output.Backend) {
		errs = append(errs, fmt.Errorf("output.backend %q is invalid; valid values: %s", cfg.Output.Backend, strings.Join(backends, ", ")))
	}
	if backends := input.Backends(); !slices.Contains(backends, cfg.Input.Backend) {
		errs = append(errs, fmt.Errorf("input.backend %q is invalid; valid values: %s", cfg.Input.Backend, strings.Join(backends, ", ")))
	}
	if cfg.Input.Backend == input.BackendFile && cfg.Input.File == "" {
		errs = append(errs, errors.New("input.file is required when input.backend is file"))
	}
	if cfg.Playout.MaxBufferMs < 0 {
		errs = append(errs, fmt.Errorf("playout.max_buffer_ms %d must not be negative", cfg.Playout.MaxBufferMs))
	}
	if cfg.Discovery.Enabled && cfg.Discovery.Interval <= 0 {
		errs = append(errs, fmt.Errorf("discovery.interval %s must be positive", cfg.Discovery.Interval))
	}
	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: %s", cfg.Log.Level, strings.Join(validLogLevels, ", ")))
	}
	for i, p := range cfg.Peers {
		if _, err := ParsePeer(p); err != nil {
			errs = append(errs, fmt.Errorf("peers[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// ParsePeer parses a static peer "host:port" chat endpoint. Only literal
// IPv4 addresses are accepted.
func ParsePeer(s string) (netip.AddrPort, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("peer %q: %w", s, err)
	}
	if !ap.Addr().Is4() {
		return netip.AddrPort{}, fmt.Errorf("peer %q: only IPv4 peers are supported", s)
	}
	if ap.Port() == 0 || ap.Port() == 65535 {
		return netip.AddrPort{}, fmt.Errorf("peer %q: port out of range", s)
	}
	return ap, nil
}
