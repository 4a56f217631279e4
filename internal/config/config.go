// Package config loads Vega's YAML configuration: a Default(), a
// Load(path) that degrades to defaults when the file is missing, and
// ApplyArgs for the positional process arguments. The package reads no
// environment variables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for a Vega server process.
type Server struct {
	// Network
	BindAddress   string `yaml:"bind_address"`
	TCPPort       int    `yaml:"tcp_port"`
	DiscoveryPort int    `yaml:"discovery_port"`
	ServerName    string `yaml:"server_name"`

	// Storage
	DataDir string `yaml:"data_dir"`

	// Database (optional; empty DSN keeps the default JSON file store)
	Database DatabaseConfig `yaml:"database"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// File transfer limits
	MaxBlobSize      int64 `yaml:"max_blob_size"`
	InlineThreshold  int64 `yaml:"inline_threshold"`

	// Timing
	PingInterval   Duration `yaml:"ping_interval"`
	ReadTimeout    Duration `yaml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout"`
	SendQueueSize  int      `yaml:"send_queue_size"`
}

// DatabaseConfig holds optional PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

const (
	defaultMaxBlobSize     = 50 << 20 // ~50 MiB
	defaultInlineThreshold = 2 << 20  // ~2 MiB
)

// Default returns a Server config with sensible defaults.
func Default() Server {
	return Server{
		BindAddress:     "0.0.0.0",
		TCPPort:         443,
		DiscoveryPort:   9999,
		ServerName:      "Vega",
		DataDir:         "./data",
		LogLevel:        "info",
		MaxBlobSize:     defaultMaxBlobSize,
		InlineThreshold: defaultInlineThreshold,
		PingInterval:    Duration(30_000_000_000),  // 30s
		ReadTimeout:     Duration(120_000_000_000), // 120s
		WriteTimeout:    Duration(5_000_000_000),   // 5s
		SendQueueSize:   256,
	}
}

// Load reads a YAML config file at path, falling back to Default() if
// the file does not exist.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyArgs overlays the positional process arguments:
// `server [tcp-port] [discovery-port] [server-name...]`.
func (s *Server) ApplyArgs(args []string) error {
	if len(args) > 0 {
		var port int
		if _, err := fmt.Sscanf(args[0], "%d", &port); err != nil {
			return fmt.Errorf("parsing tcp-port %q: %w", args[0], err)
		}
		s.TCPPort = port
	}
	if len(args) > 1 {
		var port int
		if _, err := fmt.Sscanf(args[1], "%d", &port); err != nil {
			return fmt.Errorf("parsing discovery-port %q: %w", args[1], err)
		}
		s.DiscoveryPort = port
	}
	if len(args) > 2 {
		name := args[2]
		for _, extra := range args[3:] {
			name += " " + extra
		}
		s.ServerName = name
	}
	return nil
}
