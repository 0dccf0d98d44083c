package chatnode

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/p2p"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

func TestRoomIDContainsParticipants(t *testing.T) {
	aliceID := strings.Repeat("aa", 32)
	bobID := strings.Repeat("bb", 32)

	id := newRoomID("alice", "bob", aliceID, bobID)
	for _, want := range []string{"alice", "bob", aliceID, bobID} {
		if !strings.Contains(id, want) {
			t.Fatalf("room id %q missing %q", id, want)
		}
	}

	if other := newRoomID("alice", "bob", aliceID, bobID); other == id {
		t.Fatal("room ids for repeat sessions must differ")
	}
}

func TestConnectRequiresDefaultRoom(t *testing.T) {
	a, ui := newTestApp(t, "alice")
	a.room = &roomState{Topic: "some-room"}

	a.startConnect("bob")

	if a.pending.Len() != 0 {
		t.Fatal("no lookup should be issued while in a room")
	}
	if !strings.Contains(ui.String(), "/leave first") {
		t.Fatalf("expected leave-first message, got %q", ui.String())
	}
}

func TestConnectOwnNicknameRejected(t *testing.T) {
	a, ui := newTestApp(t, "alice")

	a.startConnect("alice")

	if a.pending.Len() != 0 {
		t.Fatal("no lookup should be issued for own nickname")
	}
	if !strings.Contains(ui.String(), "yourself") {
		t.Fatalf("expected self-connect message, got %q", ui.String())
	}
}

// A reverse-index entry pointing at our own identity must abort before any
// invite goes out.
func TestConnectToSelfIdentityAborts(t *testing.T) {
	a, ui := newTestApp(t, "alice")
	self := a.Node.Identity().SignPub

	op := pendingOp{
		Kind:              opNicknameLookup,
		TargetNickname:    "alice2",
		InitiatorNickname: "alice",
		InitiatorID:       self,
	}
	a.resumeNicknameLookup(op, dht.QueryResult{Found: true, Value: self})

	if a.pending.Len() != 0 {
		t.Fatal("no follow-up lookup should be issued")
	}
	if a.invite != nil {
		t.Fatal("no invite state should exist")
	}
	if !strings.Contains(ui.String(), "aborted") {
		t.Fatalf("expected abort message, got %q", ui.String())
	}
}

func TestNicknameLookupMissAborts(t *testing.T) {
	a, ui := newTestApp(t, "alice")

	op := pendingOp{Kind: opNicknameLookup, TargetNickname: "ghost"}
	a.resumeNicknameLookup(op, dht.QueryResult{Found: false})

	if a.pending.Len() != 0 {
		t.Fatal("miss must not chain another lookup")
	}
	if !strings.Contains(ui.String(), "not found") {
		t.Fatalf("expected not-found message, got %q", ui.String())
	}
}

func TestNicknameLookupChainsPeerLookup(t *testing.T) {
	a, _ := newTestApp(t, "alice")

	other, err := p2p.NewIdentity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	op := pendingOp{
		Kind:              opNicknameLookup,
		TargetNickname:    "bob",
		InitiatorNickname: "alice",
		InitiatorID:       a.Node.Identity().SignPub,
	}
	a.resumeNicknameLookup(op, dht.QueryResult{Found: true, Value: other.SignPub})

	if a.pending.Len() != 1 {
		t.Fatalf("want one chained lookup, got %d", a.pending.Len())
	}
	for id := range a.pending.ops {
		chained, _ := a.pending.Resolve(id)
		if chained.Kind != opPeerDataLookup {
			t.Fatalf("chained op is %s, want peer_data_lookup", chained.Kind)
		}
		if hex.EncodeToString(chained.TargetID) != other.UserID {
			t.Fatal("chained lookup targets the wrong identity")
		}
	}
}

func TestAcceptEntersRoom(t *testing.T) {
	a, _ := newTestApp(t, "bob")
	a.invite = &outgoingInvite{
		RoomID: "bob-alice-x-y-z",
		Peer:   participant{Nickname: "alice", UserID: strings.Repeat("aa", 32)},
	}

	a.handleInviteResponse(p2p.ExchangeEvent{
		Ex: proto.Exchange{Kind: proto.ExchangeRoomAccept, RoomID: "bob-alice-x-y-z"},
	})

	if a.invite != nil {
		t.Fatal("invite state should be cleared")
	}
	if a.room == nil || a.room.Topic != "bob-alice-x-y-z" {
		t.Fatalf("room not entered: %+v", a.room)
	}
	if a.room.Peer.Nickname != "alice" {
		t.Fatalf("wrong peer recorded: %+v", a.room.Peer)
	}
	if !a.Node.Subscribed("bob-alice-x-y-z") {
		t.Fatal("should be subscribed to the room topic")
	}
	if a.Node.Subscribed(defaultTopic) {
		t.Fatal("should have left the default topic")
	}
}

func TestRejectStaysInDefaultRoom(t *testing.T) {
	a, ui := newTestApp(t, "bob")
	a.invite = &outgoingInvite{
		RoomID: "room-1",
		Peer:   participant{Nickname: "alice"},
	}

	a.handleInviteResponse(p2p.ExchangeEvent{
		Ex: proto.Exchange{Kind: proto.ExchangeRoomReject, RoomID: "room-1"},
	})

	if a.room != nil {
		t.Fatal("reject must not enter the room")
	}
	if a.invite != nil {
		t.Fatal("invite state should be cleared")
	}
	if !a.Node.Subscribed(defaultTopic) {
		t.Fatal("should still be in the default room")
	}
	if !strings.Contains(ui.String(), "rejected") {
		t.Fatalf("expected rejection message, got %q", ui.String())
	}
}

func TestStrayInviteResponseIgnored(t *testing.T) {
	a, _ := newTestApp(t, "bob")

	a.handleInviteResponse(p2p.ExchangeEvent{
		Ex: proto.Exchange{Kind: proto.ExchangeRoomAccept, RoomID: "never-sent"},
	})

	if a.room != nil {
		t.Fatal("stray accept must not open a room")
	}
}

// An incoming invite while our own invite is in flight is auto-declined;
// accepting it could end with both rooms subscribed once the crossed accept
// lands.
func TestIncomingInviteDeclinedWhileInvitePending(t *testing.T) {
	a, ui := newTestApp(t, "bob")
	a.invite = &outgoingInvite{
		RoomID: "bob-alice-x-y-z",
		Peer:   participant{Nickname: "alice"},
	}

	// No console input queued: if this opened a prompt it would block.
	a.handleRoomInvite(p2p.ExchangeEvent{
		FromPeerID: "peer-carol",
		FromUserID: strings.Repeat("dd", 32),
		Ex:         proto.Exchange{Kind: proto.ExchangeRoomInvite, RoomID: "carol-bob-q-r-s", Nickname: "carol"},
	})

	if a.room != nil {
		t.Fatal("crossed invite must not enter a room")
	}
	if a.invite == nil {
		t.Fatal("outgoing invite must stay in flight")
	}
	if !strings.Contains(ui.String(), "declined invite from") {
		t.Fatalf("expected auto-decline message, got %q", ui.String())
	}
	if a.Node.Subscribed("carol-bob-q-r-s") {
		t.Fatal("must not subscribe to the declined room")
	}
}

// A late accept for our own invite, arriving after we joined a different
// room, must be dropped: entering would leave the node subscribed to two
// private rooms at once.
func TestLateAcceptAfterJoiningAnotherRoom(t *testing.T) {
	a, _ := newTestApp(t, "bob")
	a.invite = &outgoingInvite{
		RoomID: "bob-alice-x-y-z",
		Peer:   participant{Nickname: "alice", UserID: strings.Repeat("aa", 32)},
	}
	a.enterRoom(roomState{
		Topic: "carol-bob-q-r-s",
		Self:  participant{Nickname: "bob", UserID: a.Node.Identity().UserID},
		Peer:  participant{Nickname: "carol", UserID: strings.Repeat("dd", 32)},
	})

	a.handleInviteResponse(p2p.ExchangeEvent{
		Ex: proto.Exchange{Kind: proto.ExchangeRoomAccept, RoomID: "bob-alice-x-y-z"},
	})

	if a.invite != nil {
		t.Fatal("invite state should be cleared")
	}
	if a.room == nil || a.room.Topic != "carol-bob-q-r-s" {
		t.Fatalf("current room must be untouched, got %+v", a.room)
	}
	if a.Node.Subscribed("bob-alice-x-y-z") {
		t.Fatal("node is subscribed to two private rooms at once")
	}
	if !a.Node.Subscribed("carol-bob-q-r-s") {
		t.Fatal("current room subscription must survive")
	}
}

// Invalid prompt input re-prompts instead of rejecting.
func TestInvitePromptReprompts(t *testing.T) {
	a, ui := newTestApp(t, "bob")
	a.lines <- "maybe"
	a.lines <- "n"

	a.handleRoomInvite(p2p.ExchangeEvent{
		FromPeerID: "peer-1",
		FromUserID: strings.Repeat("cc", 32),
		Ex:         proto.Exchange{Kind: proto.ExchangeRoomInvite, RoomID: "room-1", Nickname: "alice"},
	})

	out := ui.String()
	if !strings.Contains(out, "please answer y or n") {
		t.Fatalf("expected re-prompt, got %q", out)
	}
	if a.room != nil {
		t.Fatal("answering n must not enter the room")
	}
}
