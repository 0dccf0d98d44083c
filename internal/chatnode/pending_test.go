package chatnode

import (
	"testing"
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
)

func TestPendingResolveOnce(t *testing.T) {
	pt := newPendingTable(time.Minute)
	id := dht.QueryID("q1")
	pt.Register(id, pendingOp{Kind: opNicknameLookup, TargetNickname: "alice"})

	op, ok := pt.Resolve(id)
	if !ok {
		t.Fatal("first resolve should find the op")
	}
	if op.Kind != opNicknameLookup || op.TargetNickname != "alice" {
		t.Fatalf("wrong op back: %+v", op)
	}

	if _, ok := pt.Resolve(id); ok {
		t.Fatal("second resolve must return nothing")
	}
	if pt.Len() != 0 {
		t.Fatalf("table should be empty, has %d", pt.Len())
	}
}

func TestPendingResolveUnknown(t *testing.T) {
	pt := newPendingTable(time.Minute)
	if _, ok := pt.Resolve(dht.QueryID("never-registered")); ok {
		t.Fatal("unknown id must not resolve")
	}
}

func TestPendingExpire(t *testing.T) {
	pt := newPendingTable(50 * time.Millisecond)
	pt.Register(dht.QueryID("old"), pendingOp{Kind: opRatingUpdate, Delta: 1})

	if got := pt.Expire(time.Now()); len(got) != 0 {
		t.Fatalf("nothing should expire yet, got %d", len(got))
	}

	expired := pt.Expire(time.Now().Add(time.Second))
	if len(expired) != 1 {
		t.Fatalf("want 1 expired, got %d", len(expired))
	}
	if expired[0].ID != dht.QueryID("old") || expired[0].Op.Kind != opRatingUpdate {
		t.Fatalf("wrong expired entry: %+v", expired[0])
	}

	// Expired ids are gone for good.
	if _, ok := pt.Resolve(dht.QueryID("old")); ok {
		t.Fatal("expired id must not resolve")
	}
	if got := pt.Expire(time.Now().Add(time.Hour)); len(got) != 0 {
		t.Fatalf("second sweep must be empty, got %d", len(got))
	}
}
