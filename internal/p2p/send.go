package p2p

import (
	"fmt"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

func (n *Node) sendPeerList(p *peer) error {
	pl := proto.PeerList{Peers: n.snapshotPeersInfo()}
	env := proto.Envelope{
		Type:    proto.MsgPeerList,
		FromID:  n.id.ID,
		Payload: proto.MustMarshal(pl),
	}
	n.sendAsync(p, env)
	return nil
}

func (n *Node) sendAsync(p *peer, env proto.Envelope) {
	select {
	case p.sendCh <- env:
		// queued
	default:
		n.Logf("peer %s send buffer full, dropping", p.id)
		go n.removePeer(p.id)
	}
}

// SendToPeer sends an envelope to a peer by network ID.
// It returns an error if the peer is not known.
func (n *Node) SendToPeer(id string, env proto.Envelope) error {
	n.mu.RLock()
	p, ok := n.peers[id]
	n.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown peer %q", id)
	}

	n.sendAsync(p, env)
	return nil
}

// SendToUserID sends an envelope to a connected peer addressed by userID
// (hex(ed25519 pub)).
func (n *Node) SendToUserID(userID string, env proto.Envelope) error {
	pid, ok := n.NetworkPeerIDForUserID(userID)
	if !ok {
		return fmt.Errorf("unknown user %q (not connected)", userID)
	}
	return n.SendToPeer(pid, env)
}
