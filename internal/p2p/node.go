package p2p

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/netx"
	"github.com/KushDesai04/swapbytes/internal/proto"
	"github.com/KushDesai04/swapbytes/internal/telemetry"
)

type NodeConfig struct {
	Name       string           // user-facing nickname
	Network    netx.Network     // transport implementation
	BindAddr   string           // e.g. ":0" to choose random port
	Bootstraps []netx.Addr      // known peers to try on startup
	Protocol   string           // protocol version string
	Logger     telemetry.Logger // system logger
	Debug      bool             // show node-level logs
	Identity   *Identity        // persisted keys; generated if nil
}

type peer struct {
	id           string
	addr         netx.Addr
	observedAddr netx.Addr
	// conn is the Noise-secured stream, only ever read and closed here;
	// the raw transport conn keeps the address info.
	conn   io.ReadWriteCloser
	writer *json.Encoder

	sendCh chan proto.Envelope

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	name    string
	userPub ed25519.PublicKey
	userID  string
}

// PeerSnapshot is a read-only view of a connected peer.
type PeerSnapshot struct {
	NetworkID string // Noise hex ID (p.id)
	Name      string // p.name from Identify
	UserID    string // hex(ed25519 pub) if known
	Addr      string // listen address string
}

type Node struct {
	cfg  NodeConfig
	id   *Identity
	addr netx.Addr

	mu            sync.RWMutex
	peers         map[string]*peer
	peersByUserID map[string]*peer

	topicsMu sync.RWMutex
	topics   map[string]bool

	seen *seenCache

	dht *dht.DHT

	ctx    context.Context
	cancel context.CancelFunc

	incoming  chan proto.Envelope // gossip the app is subscribed to
	exchanges chan ExchangeEvent  // point-to-point request/response traffic

	events chan Event
}

func NewNode(cfg NodeConfig) (*Node, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	id := cfg.Identity
	if id == nil {
		var err error
		id, err = NewIdentity()
		if err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{
		cfg:           cfg,
		id:            id,
		peers:         make(map[string]*peer),
		peersByUserID: make(map[string]*peer),
		topics:        make(map[string]bool),
		seen:          newSeenCache(2 * time.Minute),
		ctx:           ctx,
		cancel:        cancel,
		incoming:      make(chan proto.Envelope, 128),
		exchanges:     make(chan ExchangeEvent, 64),
		events:        make(chan Event, 128),
	}
	return n, nil
}

// ID returns this node's peer ID.
func (n *Node) ID() string { return n.id.ID }

// Identity returns the node's identity (keypairs).
func (n *Node) Identity() *Identity { return n.id }

// ListenAddr returns where this node is listening.
func (n *Node) ListenAddr() netx.Addr { return n.addr }

// Incoming returns a channel of gossip for higher-level app logic.
func (n *Node) Incoming() <-chan proto.Envelope { return n.incoming }

// Name returns this node's nickname.
func (n *Node) Name() string { return n.cfg.Name }

// Events returns a channel of connection events for logging.
func (n *Node) Events() <-chan Event { return n.events }

// EnableDHT attaches a DHT engine before Start.
func (n *Node) EnableDHT(opts ...dht.Option) error {
	d, err := dht.New(n.id.ID, opts...)
	if err != nil {
		return err
	}
	n.dht = d
	return nil
}

// DHT returns the attached engine, or nil when EnableDHT was not called.
func (n *Node) DHT() *dht.DHT { return n.dht }

// Start brings the node online.
func (n *Node) Start() error {
	addr, err := n.cfg.Network.Listen(n.cfg.BindAddr)
	if err != nil {
		return err
	}
	n.addr = addr
	n.Logf("listening on %s, peerID=%s", n.addr, n.id.ID)

	go n.acceptLoop()

	go n.discoveryLoop()

	if n.dht != nil {
		n.coldStartDHTBootstrap()
		n.startDHTBootstrapLoop(DefaultDHTBootstrapConfig())
		go n.dht.RunRecordMaintenance(n.ctx, n, dht.DefaultMaintenanceConfig())
		go n.dht.RunBucketRefresh(n.ctx, n, 30*time.Minute)
	}

	return nil
}

// Stop shuts down the node.
func (n *Node) Stop() error {
	n.cancel()
	return n.cfg.Network.Close()
}

func (n *Node) emit(e Event) {
	select {
	case n.events <- e:
	default:
		// drop to avoid deadlock
	}
}

func (n *Node) relay(originID string, env proto.Envelope) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for id, p := range n.peers {
		if id == originID {
			continue
		}
		n.sendAsync(p, env)
	}
}
