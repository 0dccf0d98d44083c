package dht

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

// QueryID correlates an async Get/Put with the QueryResult it eventually
// produces on Results().
type QueryID string

func newQueryID() QueryID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return QueryID(hex.EncodeToString(b[:]))
}

// QueryResult is delivered on Results() exactly once per Get/Put.
// For a Get, Found says whether a record existed and Value carries its bytes.
// For a Put, Found is true on success. Err is set when the query failed
// outright; a clean "no record" lookup reports Found=false with a nil Err.
type QueryResult struct {
	ID    QueryID
	Key   [32]byte
	Value []byte
	Found bool
	Err   error
}

// Results is the single stream of completed queries. The app's event loop
// consumes it alongside its other channels.
func (d *DHT) Results() <-chan QueryResult { return d.results }

// Get starts an iterative value lookup and returns immediately. The outcome
// arrives later on Results() tagged with the returned QueryID.
func (d *DHT) Get(ctx context.Context, n Sender, key [32]byte) QueryID {
	qid := newQueryID()
	go func() {
		rec, found, err := d.IterativeFindValue(ctx, n, key, DefaultValueLookupConfig())
		res := QueryResult{ID: qid, Key: key, Err: err}
		if err == nil && found {
			res.Found = true
			res.Value = append([]byte(nil), rec.Value...)
		}
		d.deliver(ctx, res)
	}()
	return qid
}

// Put publishes value under key with the given ttl and durability, returning
// immediately. Completion arrives on Results() with Found=true on success.
func (d *DHT) Put(ctx context.Context, n Sender, key [32]byte, value []byte, ttl time.Duration, durability Durability) QueryID {
	qid := newQueryID()
	now := time.Now()
	rec := &proto.DHTRecord{
		Value:       append([]byte(nil), value...),
		CreatedUnix: now.Unix(),
		ExpiresUnix: now.Add(ttl).Unix(),
	}
	go func() {
		err := d.PublishRecord(ctx, n, key, rec, durability, DefaultPublishConfig())
		res := QueryResult{ID: qid, Key: key, Err: err, Found: err == nil}
		if err == nil {
			res.Value = append([]byte(nil), value...)
		}
		d.deliver(ctx, res)
	}()
	return qid
}

func (d *DHT) deliver(ctx context.Context, res QueryResult) {
	select {
	case d.results <- res:
	case <-ctx.Done():
	}
}
