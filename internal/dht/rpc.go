package dht

import (
	"context"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

const pingTimeout = 800 * time.Millisecond

func (d *DHT) sendRPC(n Sender, peerID string, req proto.DHTWire, timeout time.Duration) (proto.DHTWire, error) {
	rpcid := newRPCID()
	req.RPCID = rpcid

	ch := make(chan proto.DHTWire, 1)

	d.pendingMu.Lock()
	d.pending[rpcid] = ch
	d.pendingMu.Unlock()

	if err := n.SendToPeer(peerID, proto.Envelope{
		Type:    proto.MsgDHT,
		FromID:  n.ID(),
		Payload: proto.MustMarshal(req),
	}); err != nil {
		d.pendingMu.Lock()
		delete(d.pending, rpcid)
		d.pendingMu.Unlock()
		d.metrics.IncRPC(req.Kind, false)
		return proto.DHTWire{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		d.metrics.IncRPC(req.Kind, true)
		return resp, nil
	case <-timer.C:
		d.pendingMu.Lock()
		delete(d.pending, rpcid)
		d.pendingMu.Unlock()
		d.metrics.IncRPC(req.Kind, false)
		return proto.DHTWire{}, context.DeadlineExceeded
	}
}

func (d *DHT) QueryPing(n Sender, peerID string, timeout time.Duration) (proto.DHTWire, error) {
	return d.sendRPC(n, peerID, proto.DHTWire{Kind: "PING"}, timeout)
}

func (d *DHT) QueryFindNode(n Sender, peerID string, targetHex string, timeout time.Duration) (proto.DHTWire, error) {
	return d.sendRPC(n, peerID, proto.DHTWire{Kind: "FIND_NODE", Target: targetHex}, timeout)
}

func (d *DHT) QueryFindValue(n Sender, peerID string, keyHex string, timeout time.Duration) (proto.DHTWire, error) {
	return d.sendRPC(n, peerID, proto.DHTWire{Kind: "FIND_VALUE", Key: keyHex}, timeout)
}

func (d *DHT) QueryStore(n Sender, peerID string, keyHex string, rec *proto.DHTRecord, timeout time.Duration) (proto.DHTWire, error) {
	return d.sendRPC(n, peerID, proto.DHTWire{Kind: "STORE", Key: keyHex, Record: rec}, timeout)
}
