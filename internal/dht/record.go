package dht

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/KushDesai04/swapbytes/internal/proto"
)

var (
	ErrBadRecord      = errors.New("dht: bad record")
	ErrRecordTooLarge = errors.New("dht: record too large")
	ErrNotFound       = errors.New("dht: not found")
)

// Records live under 32-byte keys derived from a logical key: the raw bytes
// of a peer identity, or "nickname:<nick>". Hashing keeps arbitrary-length
// logical keys addressable in the XOR keyspace. Records are unsigned and
// last-writer-wins; any peer may rewrite any record (the reputation flow
// depends on that).

const maxRecordValue = 64 * 1024

// KeyFromBytes maps a logical key to its DHT key.
func KeyFromBytes(logical []byte) [32]byte {
	return sha256.Sum256(logical)
}

func KeyHex(k [32]byte) string { return hex.EncodeToString(k[:]) }

func ParseKeyHex(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, ErrBadRecord
	}
	copy(out[:], b)
	return out, nil
}

// ValidateRecord checks the bounds a node enforces before storing or serving
// a record.
func ValidateRecord(rec *proto.DHTRecord) error {
	if rec == nil {
		return ErrBadRecord
	}
	if rec.ExpiresUnix != 0 && time.Now().Unix() > rec.ExpiresUnix {
		return ErrBadRecord
	}
	if len(rec.Value) > maxRecordValue {
		return ErrRecordTooLarge
	}
	return nil
}
