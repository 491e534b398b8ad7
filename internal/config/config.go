// Package config loads the server's ServerConfig from YAML, merges in
// defaults, and validates it before the supervisor is constructed. The
// core (internal/chatserver) never reads files or flags itself — it only
// ever accepts an already-populated ServerConfig value.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig is the complete, validated configuration for one server
// instance.
type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
	MaxConnections int           `yaml:"max_connections"`
	AuthTimeout    time.Duration `yaml:"auth_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	BroadcastPoll  time.Duration `yaml:"broadcast_poll"`
	LogFormat      string        `yaml:"log_format"` // "text" or "json"
	DebugAddr      string        `yaml:"debug_addr"` // empty disables the debug endpoint
}

// Defaults mirror the values named explicitly in the protocol design:
// a 30-second auth window, a 180-second idle window, and a 200ms
// broadcaster poll interval.
const (
	DefaultAuthTimeout   = 30 * time.Second
	DefaultIdleTimeout   = 180 * time.Second
	DefaultBroadcastPoll = 200 * time.Millisecond
	DefaultMaxConns      = 1024
	DefaultLogFormat     = "text"
)

// Default returns a ServerConfig populated with the package defaults.
func Default() ServerConfig {
	return ServerConfig{
		ListenAddr:     ":8765",
		MaxConnections: DefaultMaxConns,
		AuthTimeout:    DefaultAuthTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		BroadcastPoll:  DefaultBroadcastPoll,
		LogFormat:      DefaultLogFormat,
	}
}

// Load reads a YAML file at path, merging its values over Default(), and
// validates the result.
func Load(path string) (ServerConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete enough to start the
// server, returning the first problem found.
func (c ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("listen_addr %q: %w", c.ListenAddr, err)
	}
	if c.CertFile == "" {
		return fmt.Errorf("cert_file is required")
	}
	if c.KeyFile == "" {
		return fmt.Errorf("key_file is required")
	}
	if _, err := os.Stat(c.CertFile); err != nil {
		return fmt.Errorf("cert_file %q: %w", c.CertFile, err)
	}
	if _, err := os.Stat(c.KeyFile); err != nil {
		return fmt.Errorf("key_file %q: %w", c.KeyFile, err)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be > 0, got %d", c.MaxConnections)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be %q or %q, got %q", "text", "json", c.LogFormat)
	}
	return nil
}

// WriteDefaultYAML writes a commented default configuration to path, used
// by the CLI's genconfig subcommand.
func WriteDefaultYAML(path string) error {
	const template = `# c2hatd server configuration
listen_addr: ":8765"
cert_file: ""
key_file: ""
max_connections: 1024
auth_timeout: 30s
idle_timeout: 180s
broadcast_poll: 200ms
log_format: text
debug_addr: ""
`
	return os.WriteFile(path, []byte(template), 0o644)
}
