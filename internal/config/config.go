// ABOUTME: Walkie configuration model and defaults
// ABOUTME: YAML-tagged settings layered as defaults, file, environment, flags
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/walkie-lan/walkie/pkg/audio"
	"github.com/walkie-lan/walkie/pkg/audio/input"
	"github.com/walkie-lan/walkie/pkg/audio/output"
)

// DefaultPort is the chat port; voice uses the next port up
const DefaultPort = 9000

// Config is the full runtime configuration
type Config struct {
	Name      string          `yaml:"name"`
	Port      int             `yaml:"port"`
	Codec     string          `yaml:"codec"`
	Bitrate   int             `yaml:"bitrate"`
	Output    OutputConfig    `yaml:"output"`
	Input     InputConfig     `yaml:"input"`
	Playout   PlayoutConfig   `yaml:"playout"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Peers     []string        `yaml:"peers"`
	Log       LogConfig       `yaml:"log"`
	NoTUI     bool            `yaml:"no_tui"`
}

// OutputConfig selects the playback backend
type OutputConfig struct {
	Backend string `yaml:"backend"`
}

// InputConfig selects the capture backend
type InputConfig struct {
	Backend string `yaml:"backend"`
	File    string `yaml:"file"`
}

// PlayoutConfig tunes the jitter buffer
type PlayoutConfig struct {
	MaxBufferMs int    `yaml:"max_buffer_ms"`
	StatsEvery  uint64 `yaml:"stats_every"`
}

// DiscoveryConfig controls mDNS
type DiscoveryConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig controls the log sink
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Name:    defaultName(),
		Port:    DefaultPort,
		Codec:   audio.CodecOpus,
		Bitrate: 32000,
		Output:  OutputConfig{Backend: output.BackendMalgo},
		Input:   InputConfig{Backend: input.BackendMalgo},
		Playout: PlayoutConfig{StatsEvery: 100},
		Discovery: DiscoveryConfig{
			Enabled:  true,
			Interval: 5 * time.Second,
		},
		Log: LogConfig{
			File:  "walkie.log",
			Level: "info",
		},
	}
}

// AudioPort is the voice socket's port
func (c *Config) AudioPort() int {
	return c.Port + 1
}

func defaultName() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-walkie", hostname)
}
