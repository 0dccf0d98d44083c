package dht

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const NodeIDBytes = 32

type NodeID [NodeIDBytes]byte

func ParseNodeIDHex(s string) (NodeID, error) {
	var id NodeID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != NodeIDBytes {
		return id, fmt.Errorf("node id must be %d bytes, got %d", NodeIDBytes, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func MustParseNodeIDHex(s string) NodeID {
	id, err := ParseNodeIDHex(s)
	if err != nil {
		panic(err)
	}
	return id
}

// NodeIDFromPeerID derives the routing id from a transport peer id.
// Peer ids are 32-byte public keys in hex, so the mapping is direct.
func NodeIDFromPeerID(peerID string) (NodeID, error) {
	return ParseNodeIDHex(peerID)
}

// NodeIDMatchesPeerID reports whether a claimed node id is consistent with
// the peer id it arrived with.
func NodeIDMatchesPeerID(nodeIDHex, peerID string) bool {
	return nodeIDHex == peerID
}

func RandomNodeID() NodeID {
	var id NodeID
	_, _ = rand.Read(id[:])
	return id
}

func (id NodeID) Hex() string { return hex.EncodeToString(id[:]) }

// XOR distance: d = a ^ b
func Xor(a, b NodeID) (out NodeID) {
	for i := 0; i < NodeIDBytes; i++ {
		out[i] = a[i] ^ b[i]
	}
	return
}

// Distance is the Kademlia XOR metric.
func Distance(a, b NodeID) NodeID { return Xor(a, b) }

// DistanceLess reports whether a < b as big-endian integers.
func DistanceLess(a, b NodeID) bool {
	for i := 0; i < NodeIDBytes; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// BucketIndex returns [0..255] for 256-bit IDs.
// It's the index of the first differing bit (MSB-first).
// If identical, returns -1.
func BucketIndex(self, other NodeID) int {
	d := Xor(self, other)
	for byteIdx := 0; byteIdx < NodeIDBytes; byteIdx++ {
		x := d[byteIdx]
		if x == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if x&(1<<(7-bit)) != 0 {
				return byteIdx*8 + bit
			}
		}
	}
	return -1
}
