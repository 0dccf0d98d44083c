package dht

import (
	"context"
	"errors"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

// Durability selects how many replica acknowledgements a publish needs.
type Durability int

const (
	// DurabilityOne succeeds once any replica holder (or the local store,
	// when nothing else is reachable) has the record.
	DurabilityOne Durability = iota
	// DurabilityAll requires every reachable replica holder to acknowledge
	// the write, so readers observe the update promptly.
	DurabilityAll
)

var ErrPublishFailed = errors.New("dht: publish not acknowledged")

type PublishConfig struct {
	K          int
	Alpha      int
	RPCTimeout time.Duration
}

func DefaultPublishConfig() PublishConfig {
	return PublishConfig{
		K:          20,
		Alpha:      3,
		RPCTimeout: 1200 * time.Millisecond,
	}
}

// PublishRecord stores rec locally, marks it owned for republish, and pushes
// it to the k closest nodes. The durability level decides how many STORE
// acknowledgements count as success.
func (d *DHT) PublishRecord(ctx context.Context, n Sender, key [32]byte, rec *proto.DHTRecord, durability Durability, cfg PublishConfig) error {
	if cfg.K <= 0 {
		cfg.K = 20
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = 3
	}
	if cfg.RPCTimeout <= 0 {
		cfg.RPCTimeout = 1200 * time.Millisecond
	}

	if err := ValidateRecord(rec); err != nil {
		return err
	}

	now := time.Now()
	if err := d.rs.Put(key, rec, now); err != nil {
		// Remote replication can still succeed, but a failing local store
		// must not stay silent.
		n.Logf("dht: local store put for %s failed: %v", KeyHex(key), err)
	}

	// Mark as owned so maintenance republishes it.
	d.ownedMu.Lock()
	d.owned[key] = ownedRec{nextRepublish: now.Add(30 * time.Minute)}
	d.ownedMu.Unlock()

	// Find k-closest peers to the key by iterative FIND_NODE on the key target.
	lookupCfg := DefaultLookupConfig()
	lookupCfg.K = cfg.K
	lookupCfg.Alpha = cfg.Alpha
	lookupCfg.RPCTimeout = cfg.RPCTimeout

	targetHex := NodeID(key).Hex()
	nodes, err := d.IterativeFindNode(n, targetHex, lookupCfg)
	if err != nil {
		return err
	}
	if len(nodes) > cfg.K {
		nodes = nodes[:cfg.K]
	}

	if len(nodes) == 0 {
		// Alone in the network: the local store is the only replica.
		return nil
	}

	// STORE to those nodes with bounded concurrency = Alpha
	sem := make(chan struct{}, cfg.Alpha)
	errCh := make(chan error, len(nodes))

	for _, nd := range nodes {
		nd := nd
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			w, e := d.QueryStore(n, nd.PeerID, KeyHex(key), rec, cfg.RPCTimeout)
			if e != nil {
				errCh <- e
				return
			}
			if w.Kind == "STORE_RESULT" && !w.OK {
				errCh <- ErrBadRecord
				return
			}
			errCh <- nil
		}()
	}

	acked := 0
	var firstErr error
	for i := 0; i < len(nodes); i++ {
		if e := <-errCh; e != nil {
			if firstErr == nil {
				firstErr = e
			}
			continue
		}
		acked++
	}

	switch durability {
	case DurabilityAll:
		if acked < len(nodes) {
			if firstErr != nil {
				return firstErr
			}
			return ErrPublishFailed
		}
	default:
		if acked == 0 {
			if firstErr != nil {
				return firstErr
			}
			return ErrPublishFailed
		}
	}
	return nil
}

// GetValue is the synchronous lookup used by maintenance and tests; the app
// goes through the query facade instead.
func (d *DHT) GetValue(ctx context.Context, n Sender, key [32]byte) (*proto.DHTRecord, bool, error) {
	return d.IterativeFindValue(ctx, n, key, DefaultValueLookupConfig())
}
