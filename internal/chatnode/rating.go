package chatnode

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

// updateRating starts the read-modify-write cycle against the peer's record.
// The write-back uses DurabilityAll so every reachable replica holder sees
// the new rating before we report success. This and registration are the
// only paths that write the DHT.
func (a *App) updateRating(peer participant, delta int) {
	target, err := hex.DecodeString(peer.UserID)
	if err != nil || len(target) != ed25519.PublicKeySize {
		a.ui.Printf("[RATE] bad identity for %s, update dropped\n", peer.Nickname)
		return
	}

	qid := a.Node.DHT().Get(a.ctx, a.Node, dht.KeyFromBytes(target))
	a.pending.Register(qid, pendingOp{
		Kind:           opRatingUpdate,
		TargetID:       target,
		TargetNickname: peer.Nickname,
		Delta:          delta,
	})
}

func (a *App) resumeRatingUpdate(op pendingOp, res dht.QueryResult) {
	if res.Err != nil || !res.Found {
		a.ui.Printf("[RATE] no record for %s, update dropped\n", op.TargetNickname)
		return
	}
	rec, err := proto.DecodePeerRecord(res.Value)
	if err != nil {
		a.ui.Printf("[RATE] bad record for %s, update dropped: %v\n", op.TargetNickname, err)
		return
	}

	rec.Rating += op.Delta
	qid := a.Node.DHT().Put(a.ctx, a.Node, res.Key, proto.EncodePeerRecord(rec), a.cfg.recordTTL(), dht.DurabilityAll)
	a.pending.Register(qid, pendingOp{
		Kind: opWriteAck,
		Note: fmt.Sprintf("%s is now rated %d", rec.Nickname, rec.Rating),
	})
}
