// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr = ":8080"
	defaultSendBuffer = 16
)

// Config holds the server runtime settings.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// RedisAddr enables the Redis-backed room directory when non-empty.
	RedisAddr string

	// MaxConns caps concurrent websocket connections. 0 means unlimited.
	MaxConns int

	// IdleTimeout closes connections with no inbound traffic for this
	// long. 0 disables idle reaping.
	IdleTimeout time.Duration

	// SendBuffer is the per-connection outbound queue size.
	SendBuffer int
}

// fileConfig is the YAML shape. Durations are written as Go duration
// strings ("90s", "5m").
type fileConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	RedisAddr   string `yaml:"redis_addr"`
	MaxConns    int    `yaml:"max_conns"`
	IdleTimeout string `yaml:"idle_timeout"`
	SendBuffer  int    `yaml:"send_buffer"`
}

// Default returns the configuration used when no file or overrides are given.
func Default() Config {
	return Config{
		ListenAddr: defaultListenAddr,
		SendBuffer: defaultSendBuffer,
	}
}

// Load reads the YAML file at path (skipped when path is empty), then
// applies the LISTEN_ADDR and REDIS_ADDR environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if fc.ListenAddr != "" {
			cfg.ListenAddr = fc.ListenAddr
		}
		if fc.RedisAddr != "" {
			cfg.RedisAddr = fc.RedisAddr
		}
		if fc.MaxConns > 0 {
			cfg.MaxConns = fc.MaxConns
		}
		if fc.SendBuffer > 0 {
			cfg.SendBuffer = fc.SendBuffer
		}
		if fc.IdleTimeout != "" {
			d, err := time.ParseDuration(fc.IdleTimeout)
			if err != nil {
				return Config{}, fmt.Errorf("parse idle_timeout: %w", err)
			}
			cfg.IdleTimeout = d
		}
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}

	return cfg, nil
}
