package dht

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randID(t *testing.T) NodeID {
	t.Helper()
	var id NodeID
	_, err := rand.Read(id[:])
	if err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return id
}

func TestXorSymmetry(t *testing.T) {
	a := randID(t)
	b := randID(t)
	if Xor(a, b) != Xor(b, a) {
		t.Fatalf("xor not symmetric")
	}
}

func TestBucketIndex_MSB(t *testing.T) {
	var self NodeID
	var peer NodeID
	peer[0] = 0x80 // differs at the very first bit
	if got := BucketIndex(self, peer); got != 0 {
		t.Fatalf("expected bucket index 0, got %d", got)
	}
}

func TestBucketIndex_Identical(t *testing.T) {
	id := randID(t)
	if got := BucketIndex(id, id); got != -1 {
		t.Fatalf("expected -1 for identical ids, got %d", got)
	}
}

func TestRoutingTable_ClosestSortedByDistance(t *testing.T) {
	self := randID(t)
	rt := NewRoutingTable(self, 8)

	target := randID(t)

	for i := 0; i < 50; i++ {
		id := randID(t)
		rt.Upsert(id, randID(t).Hex(), "127.0.0.1:1234", "p")
	}

	got := rt.Closest(target, 10)
	if len(got) == 0 {
		t.Fatalf("expected some closest nodes")
	}
	if len(got) > 10 {
		t.Fatalf("expected <=10, got %d", len(got))
	}

	for i := 1; i < len(got); i++ {
		prev := Xor(got[i-1].NodeID, target)
		cur := Xor(got[i].NodeID, target)
		if bytes.Compare(prev[:], cur[:]) > 0 {
			t.Fatalf("closest not sorted at i=%d", i)
		}
	}
}

func TestRoutingTable_UpsertWithEviction_DeadTail(t *testing.T) {
	var self NodeID
	rt := NewRoutingTable(self, 2)

	// Two ids in the same top bucket (first bit set).
	mk := func(b byte) NodeID {
		var id NodeID
		id[0] = 0x80
		id[31] = b
		return id
	}

	a, b, c := mk(1), mk(2), mk(3)
	rt.Upsert(a, a.Hex(), "10.0.1.1:1", "a")
	rt.Upsert(b, b.Hex(), "10.0.2.1:1", "b")

	// Bucket full: a is now the LRU tail. Declare it dead so c replaces it.
	rt.UpsertWithEviction(c, c.Hex(), "10.0.3.1:1", "c", func(NodeInfo) bool { return false })

	found := false
	for _, ni := range rt.Closest(c, 10) {
		if ni.NodeID == a {
			t.Fatalf("dead tail should have been evicted")
		}
		if ni.NodeID == c {
			found = true
		}
	}
	if !found {
		t.Fatalf("new node should have been inserted after eviction")
	}
}
