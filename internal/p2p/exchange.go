package p2p

import (
	"encoding/json"
	"fmt"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

// ExchangeEvent is a decoded request/response from a connected peer.
type ExchangeEvent struct {
	FromPeerID string
	FromUserID string
	FromName   string
	Ex         proto.Exchange
}

// Exchanges returns the stream of point-to-point request/response traffic.
func (n *Node) Exchanges() <-chan ExchangeEvent { return n.exchanges }

// SendExchange sends a CBOR request or response to a connected peer.
func (n *Node) SendExchange(peerID string, x proto.Exchange) error {
	body, err := proto.EncodeExchange(x)
	if err != nil {
		return err
	}
	env := proto.Envelope{
		Type:    proto.MsgExchange,
		FromID:  n.id.ID,
		Payload: proto.MustMarshal(proto.ExchangeFrame{Body: body}),
	}
	return n.SendToPeer(peerID, env)
}

// SendExchangeToUser addresses the peer by user ID instead of network ID.
func (n *Node) SendExchangeToUser(userID string, x proto.Exchange) error {
	pid, ok := n.NetworkPeerIDForUserID(userID)
	if !ok {
		return fmt.Errorf("unknown user %q (not connected)", userID)
	}
	return n.SendExchange(pid, x)
}

func (n *Node) handleExchange(p *peer, env proto.Envelope) {
	var frame proto.ExchangeFrame
	if err := json.Unmarshal(env.Payload, &frame); err != nil {
		n.Logf("bad exchange frame from %s: %v", p.id, err)
		return
	}
	x, err := proto.DecodeExchange(frame.Body)
	if err != nil {
		n.Logf("bad exchange from %s: %v", p.id, err)
		return
	}

	ev := ExchangeEvent{
		FromPeerID: p.id,
		FromUserID: p.userID,
		FromName:   p.name,
		Ex:         x,
	}
	select {
	case n.exchanges <- ev:
	default:
		n.Logf("exchange buffer full, dropping %s from %s", x.Kind, p.id)
	}
}
