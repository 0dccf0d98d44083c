package dht

import (
	"fmt"
	"sync"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

// Sender is the slice of the p2p node the DHT needs to talk to peers.
type Sender interface {
	ID() string
	SendToPeer(id string, env proto.Envelope) error
	Logf(format string, args ...any)
}

// DHT is the package's primary engine.
// It owns routing, pending RPCs, stored records, and lookup behavior.
type DHT struct {
	selfIDHex string
	self      NodeID
	rt        *RoutingTable

	pendingMu sync.Mutex
	pending   map[string]chan proto.DHTWire

	rs RecordStore

	ownedMu sync.Mutex
	owned   map[[32]byte]ownedRec

	rlMu sync.Mutex
	rl   map[string]*tokenBucket

	store   *Store
	metrics Metrics

	results chan QueryResult
}

type ownedRec struct {
	nextRepublish time.Time
}

type Option func(*DHT)

// WithStore enables the persisted node-address store at path.
func WithStore(path string) Option {
	return func(d *DHT) {
		d.store = NewStore(path)
	}
}

// WithRecordStore swaps the record store (default is in-memory).
func WithRecordStore(rs RecordStore) Option {
	return func(d *DHT) {
		d.rs = rs
	}
}

func WithMetrics(m Metrics) Option {
	return func(d *DHT) {
		if m != nil {
			d.metrics = m
		}
	}
}

func WithDiversityPolicy(p DiversityPolicy) Option {
	return func(d *DHT) { d.rt.SetDiversityLimit(p.MaxPerSubnet) }
}

func New(selfIDHex string, opts ...Option) (*DHT, error) {
	self, err := ParseNodeIDHex(selfIDHex)
	if err != nil {
		return nil, fmt.Errorf("dht: invalid self id: %w", err)
	}

	d := &DHT{
		selfIDHex: selfIDHex,
		self:      self,
		rt:        NewRoutingTable(self, 20),
		pending:   make(map[string]chan proto.DHTWire),
		rs:        NewMemRecordStore(),
		owned:     make(map[[32]byte]ownedRec),
		rl:        make(map[string]*tokenBucket),
		metrics:   NoopMetrics{},
		results:   make(chan QueryResult, 64),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

func (d *DHT) Routing() *RoutingTable { return d.rt }

// Records exposes the record store (tests and maintenance).
func (d *DHT) Records() RecordStore { return d.rs }

// OnPeerSeen feeds routing and the persisted address store from any observed
// peer traffic.
func (d *DHT) OnPeerSeen(peerIDHex, addr, name string) {
	id, err := NodeIDFromPeerID(peerIDHex)
	if err != nil {
		return
	}

	d.rt.Upsert(id, peerIDHex, addr, name)
	d.metrics.SetRoutingTableSize(d.rt.Size())

	if d.store != nil && addr != "" {
		d.store.NoteSuccess(peerIDHex, addr, name)
	}
}

// ObservePeer is OnPeerSeen plus eviction-by-ping, used on DHT traffic where
// we can afford the check.
func (d *DHT) ObservePeer(n Sender, peerIDHex, addr, name string) {
	id, err := NodeIDFromPeerID(peerIDHex)
	if err != nil {
		return
	}
	d.rt.UpsertWithEviction(id, peerIDHex, addr, name, func(tail NodeInfo) bool {
		resp, err := d.QueryPing(n, tail.PeerID, pingTimeout)
		return err == nil && resp.Kind == "PONG"
	})
	if d.store != nil && addr != "" {
		d.store.NoteSuccess(peerIDHex, addr, name)
	}
}

// BootstrapAddrs returns known-good addresses from the persisted store.
func (d *DHT) BootstrapAddrs(limit int) []string {
	if d.store == nil {
		return nil
	}
	return d.store.Candidates(5, limit)
}
