package p2p

import (
	"encoding/json"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

// Subscribe marks a gossip topic for local delivery. All gossip is still
// relayed to keep the mesh connected; subscription only controls what reaches
// Incoming().
func (n *Node) Subscribe(topic string) {
	if topic == "" {
		return
	}
	n.topicsMu.Lock()
	n.topics[topic] = true
	n.topicsMu.Unlock()
}

func (n *Node) Unsubscribe(topic string) {
	n.topicsMu.Lock()
	delete(n.topics, topic)
	n.topicsMu.Unlock()
}

func (n *Node) Subscribed(topic string) bool {
	n.topicsMu.RLock()
	defer n.topicsMu.RUnlock()
	return n.topics[topic]
}

// Publish broadcasts body on topic. The message id is recorded in the dedupe
// cache so our own gossip is not delivered back to us by a relaying peer.
func (n *Node) Publish(topic string, body json.RawMessage) {
	g := proto.Gossip{
		ID:    NewMsgID(),
		Topic: topic,
		Body:  body,
	}
	n.seen.Seen(g.ID)

	env := proto.Envelope{
		Type:    proto.MsgGossip,
		FromID:  n.id.ID,
		Payload: proto.MustMarshal(g),
	}
	n.relay(n.id.ID, env)
}

func (n *Node) handleGossip(p *peer, env proto.Envelope) {
	var g proto.Gossip
	if err := json.Unmarshal(env.Payload, &g); err != nil {
		n.Logf("bad gossip from %s: %v", p.id, err)
		return
	}

	if n.seen.Seen(g.ID) {
		return
	}

	if n.Subscribed(g.Topic) {
		select {
		case n.incoming <- env:
		default:
		}
	}

	n.relay(p.id, env)
}
