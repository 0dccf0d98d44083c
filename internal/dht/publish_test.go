package dht

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

type failingRecordStore struct {
	*MemRecordStore
	putErr error
}

func (f *failingRecordStore) Put(key [32]byte, rec *proto.DHTRecord, now time.Time) error {
	return f.putErr
}

// A broken local store must be visible in the logs even when remote
// replication (here: none, empty routing table) lets the publish succeed.
func TestPublishRecordLogsLocalStoreFailure(t *testing.T) {
	var logged []string
	s := &fakeSender{
		selfID: randID(t).Hex(),
		logf: func(format string, args ...any) {
			logged = append(logged, fmt.Sprintf(format, args...))
		},
	}

	d, err := New(s.ID(), WithRecordStore(&failingRecordStore{
		MemRecordStore: NewMemRecordStore(),
		putErr:         errors.New("disk full"),
	}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	now := time.Now()
	key := KeyFromBytes([]byte("some-record"))
	rec := &proto.DHTRecord{
		Value:       []byte("v"),
		CreatedUnix: now.Unix(),
		ExpiresUnix: now.Add(time.Hour).Unix(),
	}

	if err := d.PublishRecord(context.Background(), s, key, rec, DurabilityOne, DefaultPublishConfig()); err != nil {
		t.Fatalf("publish with no peers should still succeed: %v", err)
	}

	joined := strings.Join(logged, "\n")
	if !strings.Contains(joined, "disk full") {
		t.Fatalf("local store failure not logged, got %q", joined)
	}
}
