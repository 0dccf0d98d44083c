package chatnode

import (
	"time"

	"github.com/KushDesai04/swapbytes/internal/dht"
)

// opKind tags what a DHT query was issued for, so its result event can be
// resumed correctly. The first four kinds carry the multi-step protocol
// state; opRegister drives startup registration and opWriteAck reports the
// outcome of a fire-and-forget Put.
type opKind uint8

const (
	opIncomingMessage opKind = iota + 1
	opNicknameLookup
	opPeerDataLookup
	opRatingUpdate
	opRegister
	opWriteAck
)

func (k opKind) String() string {
	switch k {
	case opIncomingMessage:
		return "incoming_message"
	case opNicknameLookup:
		return "nickname_lookup"
	case opPeerDataLookup:
		return "peer_data_lookup"
	case opRatingUpdate:
		return "rating_update"
	case opRegister:
		return "register"
	case opWriteAck:
		return "write_ack"
	}
	return "op(?)"
}

// pendingOp is one suspended operation, flat like proto.Exchange. Field use
// per kind:
//
//	incoming_message:  Sender, Text, Timestamp
//	nickname_lookup:   TargetNickname, InitiatorNickname, InitiatorID
//	peer_data_lookup:  TargetID, InitiatorNickname, InitiatorID
//	rating_update:     TargetID, Delta
//	register:          (none)
//	write_ack:         Note
type pendingOp struct {
	Kind opKind

	Sender    []byte
	Text      string
	Timestamp int64

	TargetNickname    string
	TargetID          []byte
	InitiatorNickname string
	InitiatorID       []byte

	Delta int

	Note string

	deadline time.Time
}

type expiredOp struct {
	ID dht.QueryID
	Op pendingOp
}

// pendingTable maps outstanding query ids to their suspended operation.
// Owned exclusively by the event loop; no locking. A query id resolves at
// most once: Resolve removes the entry it returns.
type pendingTable struct {
	ops map[dht.QueryID]pendingOp
	ttl time.Duration
}

const defaultPendingTTL = 30 * time.Second

func newPendingTable(ttl time.Duration) *pendingTable {
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	return &pendingTable{
		ops: make(map[dht.QueryID]pendingOp),
		ttl: ttl,
	}
}

func (t *pendingTable) Register(id dht.QueryID, op pendingOp) {
	op.deadline = time.Now().Add(t.ttl)
	t.ops[id] = op
}

func (t *pendingTable) Resolve(id dht.QueryID) (pendingOp, bool) {
	op, ok := t.ops[id]
	if !ok {
		return pendingOp{}, false
	}
	delete(t.ops, id)
	return op, true
}

// Expire removes and returns every operation whose deadline has passed, so
// the loop can run its failure path. Without this a query id whose result is
// lost would leak forever.
func (t *pendingTable) Expire(now time.Time) []expiredOp {
	var out []expiredOp
	for id, op := range t.ops {
		if now.After(op.deadline) {
			delete(t.ops, id)
			out = append(out, expiredOp{ID: id, Op: op})
		}
	}
	return out
}

func (t *pendingTable) Len() int { return len(t.ops) }
