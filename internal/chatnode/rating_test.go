package chatnode

import (
	"testing"
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/p2p"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

func seedPeerRecord(t *testing.T, a *App, id *p2p.Identity, rec proto.PeerRecord) [32]byte {
	t.Helper()
	key := dht.KeyFromBytes(id.SignPub)
	now := time.Now()
	err := a.Node.DHT().Records().Put(key, &proto.DHTRecord{
		Value:       proto.EncodePeerRecord(rec),
		CreatedUnix: now.Unix(),
		ExpiresUnix: now.Add(time.Hour).Unix(),
	}, now)
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return key
}

func readRating(t *testing.T, a *App, key [32]byte) (int, bool) {
	t.Helper()
	stored, ok := a.Node.DHT().Records().Get(key, time.Now())
	if !ok {
		return 0, false
	}
	rec, err := proto.DecodePeerRecord(stored.Value)
	if err != nil {
		t.Fatalf("stored record is bad: %v", err)
	}
	return rec.Rating, true
}

func applyRating(t *testing.T, a *App, bob *p2p.Identity, key [32]byte, delta int) {
	t.Helper()
	stored, ok := a.Node.DHT().Records().Get(key, time.Now())
	if !ok {
		t.Fatal("record missing before update")
	}
	before, _ := readRating(t, a, key)

	op := pendingOp{Kind: opRatingUpdate, TargetID: bob.SignPub, TargetNickname: "bob", Delta: delta}
	a.resumeRatingUpdate(op, dht.QueryResult{Found: true, Value: stored.Value, Key: key})

	waitFor(t, "rating write-back", func() bool {
		got, ok := readRating(t, a, key)
		return ok && got == before+delta
	})
}

// +1 then -1 against a quiescent store restores the original rating.
func TestRatingUpdateRoundTrip(t *testing.T) {
	a, _ := newTestApp(t, "alice")
	bob, err := p2p.NewIdentity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}

	key := seedPeerRecord(t, a, bob, proto.PeerRecord{Nickname: "bob", Rating: 0})

	applyRating(t, a, bob, key, 1)
	if got, _ := readRating(t, a, key); got != 1 {
		t.Fatalf("after +1 want rating 1, got %d", got)
	}

	applyRating(t, a, bob, key, -1)
	if got, _ := readRating(t, a, key); got != 0 {
		t.Fatalf("after -1 want rating 0, got %d", got)
	}
}

func TestRatingUpdateDroppedOnMiss(t *testing.T) {
	a, ui := newTestApp(t, "alice")

	op := pendingOp{Kind: opRatingUpdate, TargetNickname: "ghost", Delta: 1}
	a.resumeRatingUpdate(op, dht.QueryResult{Found: false})

	if a.pending.Len() != 0 {
		t.Fatal("miss must not chain a write")
	}
	if got := ui.String(); got == "" {
		t.Fatal("drop should be reported")
	}
}

func TestRatingUpdateDroppedOnBadRecord(t *testing.T) {
	a, _ := newTestApp(t, "alice")

	op := pendingOp{Kind: opRatingUpdate, TargetNickname: "bob", Delta: 1}
	a.resumeRatingUpdate(op, dht.QueryResult{Found: true, Value: []byte("not json")})

	if a.pending.Len() != 0 {
		t.Fatal("undecodable record must not chain a write")
	}
}
