package proto

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ExchangeKind discriminates the request/response variants carried over the
// point-to-point channel.
type ExchangeKind uint8

const (
	ExchangeFileRequest       ExchangeKind = 1
	ExchangeFileOffer         ExchangeKind = 2
	ExchangeRoomInvite        ExchangeKind = 3
	ExchangeFileResponse      ExchangeKind = 4
	ExchangeFileOfferResponse ExchangeKind = 5
	ExchangeRoomAccept        ExchangeKind = 6
	ExchangeRoomReject        ExchangeKind = 7
)

// IsResponse reports whether the kind is a response variant.
func (k ExchangeKind) IsResponse() bool {
	switch k {
	case ExchangeFileResponse, ExchangeFileOfferResponse, ExchangeRoomAccept, ExchangeRoomReject:
		return true
	}
	return false
}

func (k ExchangeKind) String() string {
	switch k {
	case ExchangeFileRequest:
		return "file_request"
	case ExchangeFileOffer:
		return "file_offer"
	case ExchangeRoomInvite:
		return "room_invite"
	case ExchangeFileResponse:
		return "file_response"
	case ExchangeFileOfferResponse:
		return "file_offer_response"
	case ExchangeRoomAccept:
		return "room_accept"
	case ExchangeRoomReject:
		return "room_reject"
	}
	return fmt.Sprintf("exchange(%d)", uint8(k))
}

// Exchange is the single CBOR payload for all request/response traffic,
// flat like DHTWire. Responses echo the RequestID of the request they
// answer. Field use per kind:
//
//	file_request:        Path, Requester
//	file_offer:          Filename, Data
//	room_invite:         RoomID, Nickname (initiator's)
//	file_response:       Filename, Data (empty Data = rejected or not found)
//	file_offer_response: Accepted
//	room_accept/reject:  RoomID
type Exchange struct {
	RequestID string       `cbor:"1,keyasint"`
	Kind      ExchangeKind `cbor:"2,keyasint"`
	Path      string       `cbor:"3,keyasint,omitempty"`
	Requester []byte       `cbor:"4,keyasint,omitempty"` // raw PeerIdentity
	Filename  string       `cbor:"5,keyasint,omitempty"`
	Data      []byte       `cbor:"6,keyasint,omitempty"`
	RoomID    string       `cbor:"7,keyasint,omitempty"`
	Nickname  string       `cbor:"8,keyasint,omitempty"`
	Accepted  bool         `cbor:"9,keyasint,omitempty"`
}

// ExchangeFrame carries the CBOR body inside a JSON envelope payload.
type ExchangeFrame struct {
	Body []byte `json:"body"`
}

func EncodeExchange(x Exchange) ([]byte, error) {
	return cbor.Marshal(x)
}

func DecodeExchange(data []byte) (Exchange, error) {
	var x Exchange
	if err := cbor.Unmarshal(data, &x); err != nil {
		return Exchange{}, fmt.Errorf("exchange decode: %w", err)
	}
	if x.Kind == 0 {
		return Exchange{}, fmt.Errorf("exchange missing kind")
	}
	return x, nil
}
