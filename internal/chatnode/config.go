package chatnode

import (
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/netx"
	"github.com/KushDesai04/swapbytes/internal/p2p"
)

type Config struct {
	Nickname   string
	Bind       string
	Bootstraps []netx.Addr
	Debug      bool

	// LANDiscovery enables the UDP responder and periodic LAN sweeps.
	LANDiscovery bool
	// LANPort overrides the discovery UDP port; zero keeps the default.
	LANPort int

	// DownloadDir receives accepted file transfers; empty means the
	// working directory.
	DownloadDir string

	// RecordTTL bounds the lifetime of DHT records written by this node.
	// Zero picks a day.
	RecordTTL time.Duration

	// Identity is the persisted keypair set; nil generates an ephemeral one.
	Identity *p2p.Identity

	// RecordStore backs the DHT replica storage; nil keeps records in memory.
	RecordStore dht.RecordStore

	// AddrStorePath persists known DHT node addresses for cold starts.
	AddrStorePath string

	// PeerStorePath persists dialable peer addresses for the discovery
	// manager.
	PeerStorePath string
}

const defaultRecordTTL = 24 * time.Hour

func (c Config) recordTTL() time.Duration {
	if c.RecordTTL > 0 {
		return c.RecordTTL
	}
	return defaultRecordTTL
}
