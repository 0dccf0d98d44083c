package recordbolt

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/KushDesai04/swapbytes/internal/dht"
	"github.com/KushDesai04/swapbytes/internal/proto"
)

const (
	bRecords = "dht_records"

	defaultTO = 2 * time.Second
)

// Store is a BoltDB-backed dht.RecordStore. Records a node holds survive
// restarts, so a rejoining node serves its replicas straight away.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) a BoltDB database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: defaultTO})
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bRecords))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(key [32]byte, now time.Time) (*proto.DHTRecord, bool) {
	var rec *proto.DHTRecord
	_ = s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bRecords)).Get(key[:])
		if raw == nil {
			return nil
		}
		var r proto.DHTRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil
		}
		rec = &r
		return nil
	})
	if rec == nil {
		return nil, false
	}
	if rec.ExpiresUnix != 0 && now.Unix() > rec.ExpiresUnix {
		return nil, false
	}
	return rec, true
}

// Put overwrites unconditionally: records are last-writer-wins.
func (s *Store) Put(key [32]byte, rec *proto.DHTRecord, now time.Time) error {
	if rec == nil {
		return dht.ErrBadRecord
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bRecords)).Put(key[:], raw)
	})
}

func (s *Store) Delete(key [32]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bRecords)).Delete(key[:])
	})
}

func (s *Store) SweepExpired(now time.Time) int {
	if now.IsZero() {
		now = time.Now()
	}
	n := 0
	_ = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bRecords))
		c := b.Cursor()

		var stale [][]byte
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var r proto.DHTRecord
			if err := json.Unmarshal(v, &r); err != nil {
				stale = append(stale, append([]byte(nil), k...))
				continue
			}
			if r.ExpiresUnix != 0 && now.Unix() > r.ExpiresUnix {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n
}

func (s *Store) ForEach(fn func(key [32]byte, rec *proto.DHTRecord) bool) {
	_ = s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bRecords)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if len(k) != 32 {
				continue
			}
			var r proto.DHTRecord
			if err := json.Unmarshal(v, &r); err != nil {
				continue
			}
			var key [32]byte
			copy(key[:], k)
			if !fn(key, &r) {
				return nil
			}
		}
		return nil
	})
}

func (s *Store) Len() int {
	n := 0
	_ = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bRecords)).Stats().KeyN
		return nil
	})
	return n
}

// Compile-time check that Store satisfies the interface.
var _ dht.RecordStore = (*Store)(nil)
