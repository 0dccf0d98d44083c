package proto

// DHTWire is the single payload for all DHT traffic.
// Keep it flat + explicit for forwards-compat.
type DHTWire struct {
	// Kind is one of: "PING", "PONG", "FIND_NODE", "NODES",
	// "FIND_VALUE", "VALUE", "STORE", "STORE_RESULT"
	Kind string `json:"kind"`

	// RPC correlation id for matching a reply to its request.
	RPCID string `json:"rpc_id,omitempty"`

	// The lookup target for FIND_NODE (32-byte node id, hex string)
	Target string `json:"target,omitempty"`

	// Record key for FIND_VALUE / STORE / VALUE (32 bytes, hex string)
	Key string `json:"key,omitempty"`

	// The record for STORE / VALUE
	Record *DHTRecord `json:"record,omitempty"`

	// Returned nodes for NODES, and for VALUE when the record is absent
	Nodes []DHTNode `json:"nodes,omitempty"`

	// STORE_RESULT outcome
	OK    bool   `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

type DHTNode struct {
	NodeID string `json:"node_id"` // 64 hex chars (32 bytes)
	PeerID string `json:"peer_id"` // transport id for dialing/sending
	Addr   string `json:"addr"`    // host:port
	Name   string `json:"name,omitempty"`
}

// DHTRecord is a stored value. Records are unsigned and last-writer-wins:
// the reputation flow has peers other than the record owner rewriting a
// record, so owner signatures cannot gate writes.
type DHTRecord struct {
	Value       []byte `json:"value"`
	CreatedUnix int64  `json:"created_unix"`
	ExpiresUnix int64  `json:"expires_unix,omitempty"`
}
