package chatnode

import (
	"fmt"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

// startRegistration publishes this node's PeerRecord and the reverse
// nickname index. It reads before writing so a restart does not clobber the
// rating earned under this identity.
func (a *App) startRegistration() {
	if a.registered {
		return
	}
	a.registered = true

	key := dht.KeyFromBytes(a.Node.Identity().SignPub)
	qid := a.Node.DHT().Get(a.ctx, a.Node, key)
	a.pending.Register(qid, pendingOp{Kind: opRegister})
}

func (a *App) resumeRegistration(_ pendingOp, res dht.QueryResult) {
	if res.Err != nil {
		a.registered = false
		a.ui.Printf("[DHT] registration lookup failed: %v\n", res.Err)
		return
	}

	nick := a.Node.Name()

	if res.Found {
		rec, err := proto.DecodePeerRecord(res.Value)
		if err == nil {
			if rec.Nickname == nick {
				a.ui.Printf("[DHT] registered as %s (rating %d)\n", rec.Nickname, rec.Rating)
				a.publishNicknameIndex(nick)
				return
			}
			// Nickname changed; keep the earned rating.
			a.publishIdentity(proto.PeerRecord{Nickname: nick, Rating: rec.Rating})
			return
		}
		a.logf("stored peer record is bad, rewriting: %v", err)
	}

	a.publishIdentity(proto.PeerRecord{Nickname: nick, Rating: 0})
}

func (a *App) publishIdentity(rec proto.PeerRecord) {
	id := a.Node.Identity()
	key := dht.KeyFromBytes(id.SignPub)

	qid := a.Node.DHT().Put(a.ctx, a.Node, key, proto.EncodePeerRecord(rec), a.cfg.recordTTL(), dht.DurabilityOne)
	a.pending.Register(qid, pendingOp{
		Kind: opWriteAck,
		Note: fmt.Sprintf("registered as %s (rating %d)", rec.Nickname, rec.Rating),
	})

	a.publishNicknameIndex(rec.Nickname)
}

// publishNicknameIndex writes "nickname:<nick>" -> identity. Last writer
// wins; nothing enforces nickname uniqueness network-wide.
func (a *App) publishNicknameIndex(nick string) {
	id := a.Node.Identity()
	key := dht.KeyFromBytes(proto.ReverseNicknameKey(nick))

	qid := a.Node.DHT().Put(a.ctx, a.Node, key, id.SignPub, a.cfg.recordTTL(), dht.DurabilityOne)
	a.pending.Register(qid, pendingOp{
		Kind: opWriteAck,
		Note: fmt.Sprintf("nickname %q published", nick),
	})
}
