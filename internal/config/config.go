// Package config holds the tool's configuration types and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all fibertree configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path  string `toml:"path"`
	Table string `toml:"table"`
}

type CacheConfig struct {
	Size int `toml:"size"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38555,
		},
		Database: DatabaseConfig{
			Path:  "", // resolved at runtime via DefaultDBPath()
			Table: "fibers",
		},
		Cache: CacheConfig{
			Size: 500,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// DefaultDBPath returns the default database path: ~/.fibertree/fibertree.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".fibertree", "fibertree.db"), nil
}
