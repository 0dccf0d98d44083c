package chatnode

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

// A fresh identity registers with rating 0 plus the reverse nickname index.
func TestRegistrationFreshIdentity(t *testing.T) {
	a, _ := newTestApp(t, "alice")
	id := a.Node.Identity()

	a.resumeRegistration(pendingOp{Kind: opRegister}, dht.QueryResult{Found: false})

	recordKey := dht.KeyFromBytes(id.SignPub)
	waitFor(t, "identity record", func() bool {
		got, ok := readRating(t, a, recordKey)
		return ok && got == 0
	})

	indexKey := dht.KeyFromBytes(proto.ReverseNicknameKey("alice"))
	waitFor(t, "nickname index", func() bool {
		stored, ok := a.Node.DHT().Records().Get(indexKey, time.Now())
		return ok && bytes.Equal(stored.Value, id.SignPub)
	})
}

// A restart must not reset the rating earned under this identity.
func TestRegistrationKeepsExistingRating(t *testing.T) {
	a, ui := newTestApp(t, "alice")
	id := a.Node.Identity()
	key := seedPeerRecord(t, a, id, proto.PeerRecord{Nickname: "alice", Rating: 7})

	stored, _ := a.Node.DHT().Records().Get(key, time.Now())
	a.resumeRegistration(pendingOp{Kind: opRegister}, dht.QueryResult{Found: true, Value: stored.Value})

	if got, _ := readRating(t, a, key); got != 7 {
		t.Fatalf("rating must survive, got %d", got)
	}
	if !strings.Contains(ui.String(), "rating 7") {
		t.Fatalf("expected welcome-back with rating, got %q", ui.String())
	}
}

// Changing nickname keeps the rating but rewrites the record and index.
func TestRegistrationNicknameChange(t *testing.T) {
	a, _ := newTestApp(t, "alice-new")
	id := a.Node.Identity()
	key := seedPeerRecord(t, a, id, proto.PeerRecord{Nickname: "alice", Rating: 3})

	stored, _ := a.Node.DHT().Records().Get(key, time.Now())
	a.resumeRegistration(pendingOp{Kind: opRegister}, dht.QueryResult{Found: true, Value: stored.Value})

	waitFor(t, "renamed record", func() bool {
		got, ok := a.Node.DHT().Records().Get(key, time.Now())
		if !ok {
			return false
		}
		rec, err := proto.DecodePeerRecord(got.Value)
		return err == nil && rec.Nickname == "alice-new" && rec.Rating == 3
	})
}

func TestStartRegistrationIssuesOneLookup(t *testing.T) {
	a, _ := newTestApp(t, "alice")

	a.startRegistration()
	a.startRegistration()

	if a.pending.Len() != 1 {
		t.Fatalf("want exactly one registration lookup, got %d", a.pending.Len())
	}
}
