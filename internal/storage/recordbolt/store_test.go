package recordbolt

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func key(b byte) [32]byte {
	var k [32]byte
	k[0] = b
	return k
}

func TestPutGetOverwrite(t *testing.T) {
	s := openTemp(t)
	now := time.Now()

	k := key(1)
	if err := s.Put(k, &proto.DHTRecord{Value: []byte("a"), CreatedUnix: now.Unix(), ExpiresUnix: now.Add(time.Hour).Unix()}, now); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(k, &proto.DHTRecord{Value: []byte("b"), CreatedUnix: now.Unix(), ExpiresUnix: now.Add(time.Hour).Unix()}, now); err != nil {
		t.Fatalf("Put 2: %v", err)
	}

	rec, ok := s.Get(k, now)
	if !ok || string(rec.Value) != "b" {
		t.Fatalf("expected overwrite, got %v", rec)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", s.Len())
	}
}

func TestGetHidesExpired(t *testing.T) {
	s := openTemp(t)
	now := time.Now()

	k := key(2)
	_ = s.Put(k, &proto.DHTRecord{Value: []byte("x"), CreatedUnix: now.Add(-2 * time.Hour).Unix(), ExpiresUnix: now.Add(-time.Hour).Unix()}, now)

	if _, ok := s.Get(k, now); ok {
		t.Fatalf("expired record must not be served")
	}

	if n := s.SweepExpired(now); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if s.Len() != 0 {
		t.Fatalf("sweep should remove the record")
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.db")
	now := time.Now()
	k := key(3)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = s.Put(k, &proto.DHTRecord{Value: []byte("persist"), CreatedUnix: now.Unix(), ExpiresUnix: now.Add(time.Hour).Unix()}, now)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	rec, ok := s2.Get(k, now)
	if !ok || string(rec.Value) != "persist" {
		t.Fatalf("expected record to survive reopen, got %v", rec)
	}
}

func TestForEachStopsEarly(t *testing.T) {
	s := openTemp(t)
	now := time.Now()
	for i := byte(0); i < 5; i++ {
		_ = s.Put(key(i), &proto.DHTRecord{Value: []byte{i}, CreatedUnix: now.Unix(), ExpiresUnix: now.Add(time.Hour).Unix()}, now)
	}

	seen := 0
	s.ForEach(func(_ [32]byte, _ *proto.DHTRecord) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Fatalf("expected early stop after 2, got %d", seen)
	}
}
