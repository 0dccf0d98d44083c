package proto

import "encoding/json"

type MessageType string

const (
	MsgHello    MessageType = "hello"
	MsgPeerList MessageType = "peer_list"
	MsgGossip   MessageType = "gossip" // generic broadcast payload
	MsgIdentify MessageType = "identify"
	MsgDHT      MessageType = "dht"
	MsgExchange MessageType = "exchange" // point-to-point request/response
)

type Envelope struct {
	Type    MessageType     `json:"type"`
	FromID  string          `json:"from_id"`
	Payload json.RawMessage `json:"payload"`
}

// Hello is exchanged on connection setup.
type Hello struct {
	Name     string `json:"name"`
	Listen   string `json:"listen"`
	Protocol string `json:"protocol"`
}

// PeerInfo describes another peer we know about.
type PeerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// PeerList is exchanged on connect to populate other peers' peer sets.
type PeerList struct {
	Peers []PeerInfo `json:"peers"`
}

// Gossip is the app-level broadcast payload. Topic is the pub/sub channel
// (the chat room); every node relays gossip but only delivers topics it is
// subscribed to.
type Gossip struct {
	ID    string          `json:"id"`
	Topic string          `json:"topic"`
	Body  json.RawMessage `json:"body"`
}

// ChatMessage is stuffed into Gossip.Body for chat topics. Sender carries the
// raw PeerIdentity so the receiver can resolve nickname and rating from the
// DHT before printing.
type ChatMessage struct {
	Sender    []byte `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// SealedMessage wraps AEAD nonce + ciphertext for private-room topics.
type SealedMessage struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Identify is sent by each peer after the transport is secured.
// It tells the remote side "who I am" at the app level.
type Identify struct {
	Name    string `json:"name"`
	UserPub []byte `json:"user_pub"` // ed25519 public key bytes
}

// NoiseIdentityPayload is sent inside the Noise handshake payload.
// It binds a user-facing identity to the Noise static key.
type NoiseIdentityPayload struct {
	Name    string `json:"name"`
	UserPub []byte `json:"user_pub"`
}
