package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration loaded from TOML.
type Config struct {
	Node    NodeConfig    `toml:"node"`
	Network NetworkConfig `toml:"network"`
	DHT     DHTConfig     `toml:"dht"`
	Files   FilesConfig   `toml:"files"`
}

// NodeConfig holds identity and transport settings.
type NodeConfig struct {
	Nickname string `toml:"nickname"`
	Listen   string `toml:"listen"`
	Debug    bool   `toml:"debug"`
	// IdentityPath stores the persisted keypair; empty uses the data dir.
	IdentityPath string `toml:"identityPath"`
}

// NetworkConfig holds peer discovery settings.
type NetworkConfig struct {
	BootstrapPeers []string `toml:"bootstrapPeers"`
	LANDiscovery   bool     `toml:"lanDiscovery"`
	LANPort        int      `toml:"lanPort"`
}

// DHTConfig holds settings for the record store.
type DHTConfig struct {
	// RecordDBPath is the bbolt database for replica records; empty uses the data dir.
	RecordDBPath string `toml:"recordDBPath"`
	// AddrStorePath persists known node addresses for cold-start bootstrap.
	AddrStorePath string `toml:"addrStorePath"`
	TTLSeconds    int    `toml:"ttlSeconds"`
}

// FilesConfig holds file exchange settings.
type FilesConfig struct {
	// DownloadDir receives incoming files; empty means the working directory.
	DownloadDir string `toml:"downloadDir"`
}

// NewDefaultConfig returns a Config populated with default values.
func NewDefaultConfig() Config {
	return Config{
		Node: NodeConfig{
			Listen: ":0",
		},
		Network: NetworkConfig{
			BootstrapPeers: []string{},
			LANDiscovery:   true,
			LANPort:        41820,
		},
		DHT: DHTConfig{
			TTLSeconds: 24 * 60 * 60,
		},
		Files: FilesConfig{},
	}
}

// DefaultConfigPath returns the XDG default path for the config file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, err2 := os.UserHomeDir()
		if err2 != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "swapbytes", "config.toml"), nil
}

// Load reads the configuration from the given path (TOML).
// If path is empty, it uses the XDG default. Missing file returns defaults.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	if info, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	} else if info.IsDir() {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
