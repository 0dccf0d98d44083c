package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleToml = `
  [node]
  nickname = "alice"
  listen = ":4001"
  debug = true

  [network]
  bootstrapPeers = ["peer1:1000", "peer2:1000"]
  lanDiscovery = false
  lanPort = 41999

  [dht]
  recordDBPath = "/tmp/records.db"
  ttlSeconds = 120

  [files]
  downloadDir = "/tmp/swapbytes"
`

// TestLoadFromFile ensures Load reads values from a TOML file.
func TestLoadFromFile(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(sampleToml), 0644); err != nil {
		t.Fatalf("failed to write sample config: %v", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Node.Nickname != "alice" || cfg.Node.Listen != ":4001" || !cfg.Node.Debug {
		t.Errorf("unexpected node config: %+v", cfg.Node)
	}
	if len(cfg.Network.BootstrapPeers) != 2 || cfg.Network.BootstrapPeers[0] != "peer1:1000" {
		t.Errorf("unexpected bootstrap peers: %v", cfg.Network.BootstrapPeers)
	}
	if cfg.Network.LANDiscovery || cfg.Network.LANPort != 41999 {
		t.Errorf("unexpected lan settings: %+v", cfg.Network)
	}
	if cfg.DHT.RecordDBPath != "/tmp/records.db" {
		t.Errorf("unexpected record db path: %s", cfg.DHT.RecordDBPath)
	}
	if cfg.DHT.TTLSeconds != 120 {
		t.Errorf("unexpected TTL: %d", cfg.DHT.TTLSeconds)
	}
	if cfg.Files.DownloadDir != "/tmp/swapbytes" {
		t.Errorf("unexpected download dir: %s", cfg.Files.DownloadDir)
	}
}

// TestLoadDefaults ensures Load returns default values when file missing.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("/path/does/not/exist/config.toml")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	def := NewDefaultConfig()
	if cfg.Node.Listen != def.Node.Listen {
		t.Errorf("defaults not applied for listen: %s", cfg.Node.Listen)
	}
	if cfg.DHT.TTLSeconds != def.DHT.TTLSeconds {
		t.Errorf("defaults not applied for TTL: %d", cfg.DHT.TTLSeconds)
	}
	if cfg.Network.LANDiscovery != def.Network.LANDiscovery || cfg.Network.LANPort != def.Network.LANPort {
		t.Errorf("defaults not applied for lan: %+v", cfg.Network)
	}
}
