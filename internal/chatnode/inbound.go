package chatnode

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

func (a *App) handleEnvelope(env proto.Envelope) {
	if env.Type != proto.MsgGossip {
		return
	}

	var g proto.Gossip
	if err := json.Unmarshal(env.Payload, &g); err != nil {
		return
	}

	switch {
	case g.Topic == defaultTopic:
		a.handleChatBody(g.Body)

	case a.room != nil && g.Topic == a.room.Topic:
		pt, err := a.openRoomMessage(g.Body)
		if err != nil {
			a.logf("room message from %s did not open: %v", shortID(env.FromID), err)
			return
		}
		a.handleChatBody(pt)
	}
}

// handleChatBody prints a chat line once its sender's record is known. The
// lookup is async: the message sits in the pending table until the DHT
// answers, and falls back to the raw identity on failure.
func (a *App) handleChatBody(body []byte) {
	var chat proto.ChatMessage
	if err := json.Unmarshal(body, &chat); err != nil {
		a.ui.Printf("[CHAT] bad chat payload: %v\n", err)
		return
	}
	if bytes.Equal(chat.Sender, a.Node.Identity().SignPub) {
		return
	}
	if len(chat.Sender) != ed25519.PublicKeySize {
		a.printChat(identityLabel(chat.Sender), chat.Text, chat.Timestamp)
		return
	}

	qid := a.Node.DHT().Get(a.ctx, a.Node, dht.KeyFromBytes(chat.Sender))
	a.pending.Register(qid, pendingOp{
		Kind:      opIncomingMessage,
		Sender:    chat.Sender,
		Text:      chat.Text,
		Timestamp: chat.Timestamp,
	})
}

func (a *App) resumeIncomingMessage(op pendingOp, res dht.QueryResult) {
	label := identityLabel(op.Sender)
	if res.Err == nil && res.Found {
		if rec, err := proto.DecodePeerRecord(res.Value); err == nil {
			label = fmt.Sprintf("%s (%d)", rec.Nickname, rec.Rating)
		} else {
			a.logf("bad peer record for %s: %v", label, err)
		}
	}
	a.printChat(label, op.Text, op.Timestamp)
}

func (a *App) printChat(label, text string, ts int64) {
	t := time.Unix(ts, 0).Format("15:04:05")
	a.ui.Printf("%s[%s]%s %s: %s\n", ansiDim, t, ansiReset, formatName(label, label), text)
}

func identityLabel(sender []byte) string {
	if len(sender) == 0 {
		return "?"
	}
	return shortID(hex.EncodeToString(sender))
}
