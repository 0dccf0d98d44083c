package proto

import (
	"encoding/json"
	"fmt"
)

// PeerRecord is the DHT value stored under a peer's identity key:
// the peer's nickname plus its accumulated reputation.
type PeerRecord struct {
	Nickname string `json:"nickname"`
	Rating   int    `json:"rating"`
}

func EncodePeerRecord(r PeerRecord) []byte {
	b, _ := json.Marshal(r)
	return b
}

func DecodePeerRecord(data []byte) (PeerRecord, error) {
	var r PeerRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return PeerRecord{}, fmt.Errorf("peer record decode: %w", err)
	}
	if r.Nickname == "" {
		return PeerRecord{}, fmt.Errorf("peer record missing nickname")
	}
	return r, nil
}

// ReverseNicknameKey is the logical DHT key of the nickname -> identity
// reverse index. Nicknames are not unique network-wide; the index is
// last-writer-wins.
func ReverseNicknameKey(nickname string) []byte {
	return []byte("nickname:" + nickname)
}
