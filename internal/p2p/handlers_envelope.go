package p2p

import (
	"encoding/json"

	"github.com/KushDesai04/swapbytes/internal/netx"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

func (n *Node) handleEnvelope(p *peer, env proto.Envelope) {
	switch env.Type {
	case proto.MsgPeerList:
		var pl proto.PeerList
		if err := json.Unmarshal(env.Payload, &pl); err != nil {
			n.Logf("bad peer list from %s: %s", p.id, err)
			return
		}
		for _, pi := range pl.Peers {
			if pi.ID == n.id.ID {
				continue
			}
			if n.hasPeer(pi.ID) {
				continue
			}
			if pi.Addr == "" {
				continue
			}
			n.Logf("discovery: dialing peer %s at %s", pi.ID, pi.Addr)
			_ = n.ConnectTo(netx.Addr(pi.Addr))
		}
	case proto.MsgGossip:
		n.handleGossip(p, env)
	case proto.MsgIdentify:
		n.handleIdentify(p, env)
	case proto.MsgDHT:
		if n.dht != nil {
			n.dht.HandleDHT(n, p.id, string(p.addr), p.name, env)
		}
	case proto.MsgExchange:
		n.handleExchange(p, env)
	default:
		select {
		case n.incoming <- env:
		default:
		}
	}
}
