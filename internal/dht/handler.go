package dht

import (
	"encoding/json"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

// HandleDHT processes one inbound DHT envelope: it delivers RPC replies to
// their waiters and answers requests from the local routing table and
// record store.
func (d *DHT) HandleDHT(n Sender, fromPeerID string, fromAddr string, fromName string, env proto.Envelope) {
	var w proto.DHTWire
	if err := json.Unmarshal(env.Payload, &w); err != nil {
		n.Logf("dht: bad payload from %s: %v", fromPeerID, err)
		return
	}

	now := time.Now()
	d.rlMu.Lock()
	b := d.rl[fromPeerID]
	if b == nil {
		b = &tokenBucket{}
		d.rl[fromPeerID] = b
	}
	ok := b.allow(now, 20 /* req/sec */, 40 /* burst */, 1 /* cost */)
	d.rlMu.Unlock()
	if !ok {
		return
	}

	// Update routing table on any DHT traffic.
	d.ObservePeer(n, fromPeerID, fromAddr, fromName)

	// Deliver responses to pending RPC waiters.
	if w.RPCID != "" && (w.Kind == "NODES" || w.Kind == "PONG" || w.Kind == "VALUE" || w.Kind == "STORE_RESULT") {
		d.pendingMu.Lock()
		ch := d.pending[w.RPCID]
		if ch != nil {
			delete(d.pending, w.RPCID)
		}
		d.pendingMu.Unlock()

		if ch != nil {
			select {
			case ch <- w:
			default:
			}
			return
		}
	}

	switch w.Kind {
	case "PING":
		d.reply(n, fromPeerID, proto.DHTWire{Kind: "PONG", RPCID: w.RPCID})

	case "FIND_NODE":
		target, err := ParseNodeIDHex(w.Target)
		if err != nil {
			return
		}
		d.reply(n, fromPeerID, proto.DHTWire{
			Kind:   "NODES",
			RPCID:  w.RPCID,
			Target: w.Target,
			Nodes:  d.closestWire(target),
		})

	case "STORE":
		_, err := ParseKeyHex(w.Key)
		if err != nil || w.Record == nil {
			d.reply(n, fromPeerID, proto.DHTWire{Kind: "STORE_RESULT", RPCID: w.RPCID, OK: false, Error: "bad_request"})
			return
		}
		if err := ValidateRecord(w.Record); err != nil {
			d.reply(n, fromPeerID, proto.DHTWire{Kind: "STORE_RESULT", RPCID: w.RPCID, OK: false, Error: err.Error()})
			return
		}

		key, _ := ParseKeyHex(w.Key)
		err = d.rs.Put(key, w.Record, time.Now())
		ok := err == nil
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		d.reply(n, fromPeerID, proto.DHTWire{Kind: "STORE_RESULT", RPCID: w.RPCID, OK: ok, Error: errMsg})

	case "FIND_VALUE":
		key, err := ParseKeyHex(w.Key)
		if err != nil {
			return
		}

		if rec, ok := d.rs.Get(key, time.Now()); ok {
			if ValidateRecord(rec) == nil {
				d.reply(n, fromPeerID, proto.DHTWire{Kind: "VALUE", RPCID: w.RPCID, Key: w.Key, Record: rec})
				return
			}
		}

		// Not found => return closest nodes (Kademlia behavior)
		target := NodeID(key)
		d.reply(n, fromPeerID, proto.DHTWire{Kind: "VALUE", RPCID: w.RPCID, Key: w.Key, Nodes: d.closestWire(target)})

	default:
		return
	}
}

func (d *DHT) reply(n Sender, peerID string, w proto.DHTWire) {
	_ = n.SendToPeer(peerID, proto.Envelope{
		Type:    proto.MsgDHT,
		FromID:  n.ID(),
		Payload: proto.MustMarshal(w),
	})
}

func (d *DHT) closestWire(target NodeID) []proto.DHTNode {
	closest := d.rt.Closest(target, 20)
	out := make([]proto.DHTNode, 0, len(closest))
	for _, ni := range closest {
		out = append(out, proto.DHTNode{
			NodeID: ni.NodeIDHex,
			PeerID: ni.PeerID,
			Addr:   ni.Addr,
			Name:   ni.Name,
		})
	}
	return out
}
