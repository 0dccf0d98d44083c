package chatnode

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/KushDesai04/swapbytes/internal/crypto/roomseal"
	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/p2p"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

type participant struct {
	Nickname string
	UserID   string // hex identity
}

// roomState carries the private room's membership explicitly instead of
// parsing it back out of the topic string, which breaks the moment a
// nickname contains the delimiter.
type roomState struct {
	Topic string
	Self  participant
	Peer  participant
}

// outgoingInvite is the initiator's state between sending an invite and the
// peer's accept/reject.
type outgoingInvite struct {
	RoomID    string
	RequestID string
	Peer      participant
}

// newRoomID builds the private topic string: both nicknames, both
// identities, and a random disambiguator so repeat sessions between the same
// pair get distinct topics.
func newRoomID(initNick, targetNick, initID, targetID string) string {
	return strings.Join([]string{initNick, targetNick, initID, targetID, uuid.NewString()}, "-")
}

// startConnect begins the initiator side: reverse-index lookup of the typed
// nickname, resumed by resumeNicknameLookup.
func (a *App) startConnect(nick string) {
	if a.room != nil {
		a.ui.Println("[ROOM] already in a private room, /leave first")
		return
	}
	if a.invite != nil {
		a.ui.Printf("[ROOM] invite to %s still outstanding\n", a.invite.Peer.Nickname)
		return
	}
	if nick == a.Node.Name() {
		a.ui.Println("[ROOM] cannot connect to yourself")
		return
	}

	id := a.Node.Identity()
	qid := a.Node.DHT().Get(a.ctx, a.Node, dht.KeyFromBytes(proto.ReverseNicknameKey(nick)))
	a.pending.Register(qid, pendingOp{
		Kind:              opNicknameLookup,
		TargetNickname:    nick,
		InitiatorNickname: a.Node.Name(),
		InitiatorID:       id.SignPub,
	})
	a.ui.Printf("[ROOM] looking up %q...\n", nick)
}

func (a *App) resumeNicknameLookup(op pendingOp, res dht.QueryResult) {
	if res.Err != nil || !res.Found {
		a.ui.Printf("[ROOM] nickname %q not found\n", op.TargetNickname)
		return
	}
	if len(res.Value) != ed25519.PublicKeySize {
		a.ui.Printf("[ROOM] bad identity stored for %q, connect aborted\n", op.TargetNickname)
		return
	}
	if bytes.Equal(res.Value, op.InitiatorID) {
		a.ui.Println("[ROOM] that nickname is you, connect aborted")
		return
	}

	target := append([]byte(nil), res.Value...)
	qid := a.Node.DHT().Get(a.ctx, a.Node, dht.KeyFromBytes(target))
	a.pending.Register(qid, pendingOp{
		Kind:              opPeerDataLookup,
		TargetID:          target,
		InitiatorNickname: op.InitiatorNickname,
		InitiatorID:       op.InitiatorID,
	})
}

func (a *App) resumePeerDataLookup(op pendingOp, res dht.QueryResult) {
	if res.Err != nil || !res.Found {
		a.ui.Println("[ROOM] peer record not found, connect aborted")
		return
	}
	rec, err := proto.DecodePeerRecord(res.Value)
	if err != nil {
		a.ui.Printf("[ROOM] bad peer record, connect aborted: %v\n", err)
		return
	}

	initID := hex.EncodeToString(op.InitiatorID)
	targetID := hex.EncodeToString(op.TargetID)
	roomID := newRoomID(op.InitiatorNickname, rec.Nickname, initID, targetID)

	inv := proto.Exchange{
		RequestID: uuid.NewString(),
		Kind:      proto.ExchangeRoomInvite,
		RoomID:    roomID,
		Nickname:  op.InitiatorNickname,
	}
	if err := a.Node.SendExchangeToUser(targetID, inv); err != nil {
		a.ui.Printf("[ROOM] cannot reach %s: %v\n", rec.Nickname, err)
		return
	}

	a.invite = &outgoingInvite{
		RoomID:    roomID,
		RequestID: inv.RequestID,
		Peer:      participant{Nickname: rec.Nickname, UserID: targetID},
	}
	a.ui.Printf("[ROOM] invite sent to %s, waiting...\n", rec.Nickname)
}

// handleInviteResponse finishes the initiator side.
func (a *App) handleInviteResponse(ev p2p.ExchangeEvent) {
	if a.invite == nil || ev.Ex.RoomID != a.invite.RoomID {
		a.logf("stray invite response %s from %s", ev.Ex.Kind, shortID(ev.FromPeerID))
		return
	}
	inv := a.invite
	a.invite = nil

	if ev.Ex.Kind == proto.ExchangeRoomReject {
		a.ui.Printf("[ROOM] %s rejected the invite\n", inv.Peer.Nickname)
		return
	}

	// Crossed invites: we accepted someone else's invite while this one was
	// in flight. Entering a second room would leave us subscribed to both.
	if a.room != nil {
		a.logf("accept for %s from %s arrived while already in a room, dropped", inv.RoomID, inv.Peer.Nickname)
		a.ui.Printf("[ROOM] ignoring late accept from %s (already in a room)\n", inv.Peer.Nickname)
		return
	}

	a.enterRoom(roomState{
		Topic: inv.RoomID,
		Self:  participant{Nickname: a.Node.Name(), UserID: a.Node.Identity().UserID},
		Peer:  inv.Peer,
	})
}

// handleRoomInvite runs the recipient side: a synchronous y/n prompt, then
// accept or reject back over the exchange channel.
func (a *App) handleRoomInvite(ev p2p.ExchangeEvent) {
	from := ev.Ex.Nickname
	if from == "" {
		from = shortID(ev.FromPeerID)
	}

	if a.room != nil {
		// Busy; decline without bothering the user.
		a.respondInvite(ev, false)
		a.ui.Printf("[ROOM] declined invite from %s (already in a room)\n", from)
		return
	}
	if a.invite != nil {
		// Our own invite is still in flight; accepting now could end with
		// both rooms subscribed once the crossed accept lands.
		a.respondInvite(ev, false)
		a.ui.Printf("[ROOM] declined invite from %s (invite to %s outstanding)\n", from, a.invite.Peer.Nickname)
		return
	}

	accept := a.promptYesNo(fmt.Sprintf("[ROOM] %s invites you to a private room. Accept? [y/n] ", formatName(from, ev.FromPeerID)))
	a.respondInvite(ev, accept)
	if !accept {
		a.ui.Println("[ROOM] invite rejected")
		return
	}

	a.enterRoom(roomState{
		Topic: ev.Ex.RoomID,
		Self:  participant{Nickname: a.Node.Name(), UserID: a.Node.Identity().UserID},
		Peer:  participant{Nickname: from, UserID: ev.FromUserID},
	})
}

func (a *App) respondInvite(ev p2p.ExchangeEvent, accept bool) {
	kind := proto.ExchangeRoomReject
	if accept {
		kind = proto.ExchangeRoomAccept
	}
	resp := proto.Exchange{
		RequestID: ev.Ex.RequestID,
		Kind:      kind,
		RoomID:    ev.Ex.RoomID,
	}
	if err := a.Node.SendExchange(ev.FromPeerID, resp); err != nil {
		a.ui.Printf("[ROOM] response to %s failed (request %s): %v\n", shortID(ev.FromPeerID), shortID(ev.Ex.RequestID), err)
	}
}

func (a *App) enterRoom(rs roomState) {
	a.Node.Unsubscribe(defaultTopic)
	a.Node.Subscribe(rs.Topic)
	a.room = &rs
	a.ui.Printf("[ROOM] private room with %s open. /leave to exit.\n", formatName(rs.Peer.Nickname, rs.Peer.UserID))
}

// leaveRoom prompts for a rating of the other participant, kicks off the
// reputation update, and drops back to the default room.
func (a *App) leaveRoom() {
	if a.room == nil {
		a.ui.Println("[ROOM] not in a private room")
		return
	}
	room := a.room

	delta := a.promptRating(fmt.Sprintf("[RATE] rate %s (-1, 0, 1): ", room.Peer.Nickname))
	// A zero delta would rewrite the record unchanged; skipping the
	// read-modify-write cycle is observationally the same and spares a
	// DurabilityAll round.
	if delta != 0 {
		a.updateRating(room.Peer, delta)
	}

	a.Node.Unsubscribe(room.Topic)
	a.Node.Subscribe(defaultTopic)
	a.room = nil
	a.ui.Println("[ROOM] back in the default room")
}

func (a *App) sealRoomMessage(plaintext []byte) (json.RawMessage, error) {
	key := roomseal.KeyFromTopic(a.room.Topic)
	nonce, ct, err := roomseal.Seal(key, plaintext)
	if err != nil {
		return nil, err
	}
	return proto.MustMarshal(proto.SealedMessage{Nonce: nonce, Ciphertext: ct}), nil
}

func (a *App) openRoomMessage(body []byte) ([]byte, error) {
	var sm proto.SealedMessage
	if err := json.Unmarshal(body, &sm); err != nil {
		return nil, err
	}
	return roomseal.Open(roomseal.KeyFromTopic(a.room.Topic), sm.Nonce, sm.Ciphertext)
}
