package noiseconn

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/flynn/noise"
)

// SecureConn wraps an underlying stream with Noise cipher states.
type SecureConn struct {
	underlying io.ReadWriteCloser

	readCS  *noise.CipherState
	writeCS *noise.CipherState
}

var _ io.ReadWriteCloser = (*SecureConn)(nil)

// HandshakeResult is a secured connection plus the identity payload the
// remote side bound into its final handshake message.
type HandshakeResult struct {
	Conn          *SecureConn
	RemotePayload []byte
}

// Read reads a single length-prefixed encrypted frame and decrypts it.
func (c *SecureConn) Read(p []byte) (int, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.underlying, lenBuf[:]); err != nil {
		return 0, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return 0, fmt.Errorf("invalid frame length")
	}

	ct := make([]byte, n)
	if _, err := io.ReadFull(c.underlying, ct); err != nil {
		return 0, err
	}

	pt, err := c.readCS.Decrypt(nil, nil, ct)
	if err != nil {
		return 0, err
	}

	if len(pt) > len(p) {
		copy(p, pt[:len(p)])
		return len(p), io.ErrShortBuffer
	}
	copy(p, pt)
	return len(pt), nil
}

// Write encrypts p as a single frame and writes it with a length prefix.
func (c *SecureConn) Write(p []byte) (int, error) {
	ct, err := c.writeCS.Encrypt(nil, nil, p)
	if err != nil {
		return 0, err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(ct)))

	if _, err := c.underlying.Write(lenBuf[:]); err != nil {
		return 0, err
	}
	if _, err := c.underlying.Write(ct); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *SecureConn) Close() error {
	return c.underlying.Close()
}

func newConfig(staticPriv, staticPub []byte, initiator bool) noise.Config {
	cs := noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2s)
	return noise.Config{
		CipherSuite:   cs,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeXX,
		Initiator:     initiator,
		StaticKeypair: noise.DHKey{Private: staticPriv, Public: staticPub},
	}
}

// NewSecureClient runs a Noise_XX handshake as initiator. payload is carried
// in the final (encrypted) handshake message; the responder's payload arrives
// in message two and is returned in the result.
func NewSecureClient(underlying io.ReadWriteCloser, staticPriv, staticPub, payload []byte) (*HandshakeResult, error) {
	hs, err := noise.NewHandshakeState(newConfig(staticPriv, staticPub, true))
	if err != nil {
		return nil, err
	}

	// -> e
	msg, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, err
	}
	if err := writeHandshakeMsg(underlying, msg); err != nil {
		return nil, err
	}

	// <- e, ee, s, es (+ responder payload)
	buf, err := readHandshakeMsg(underlying)
	if err != nil {
		return nil, err
	}
	remotePayload, _, _, err := hs.ReadMessage(nil, buf)
	if err != nil {
		return nil, err
	}

	// -> s, se (+ our payload)
	msg2, cs1, cs2, err := hs.WriteMessage(nil, payload)
	if err != nil {
		return nil, err
	}
	if err := writeHandshakeMsg(underlying, msg2); err != nil {
		return nil, err
	}

	// Initiator sends with cs1 and reads with cs2.
	return &HandshakeResult{
		Conn: &SecureConn{
			underlying: underlying,
			readCS:     cs2,
			writeCS:    cs1,
		},
		RemotePayload: remotePayload,
	}, nil
}

// NewSecureServer runs a Noise_XX handshake as responder. payload is carried
// in message two; the initiator's payload arrives in the final message.
func NewSecureServer(underlying io.ReadWriteCloser, staticPriv, staticPub, payload []byte) (*HandshakeResult, error) {
	hs, err := noise.NewHandshakeState(newConfig(staticPriv, staticPub, false))
	if err != nil {
		return nil, err
	}

	// <- e
	buf, err := readHandshakeMsg(underlying)
	if err != nil {
		return nil, err
	}
	if _, _, _, err := hs.ReadMessage(nil, buf); err != nil {
		return nil, err
	}

	// -> e, ee, s, es (+ our payload)
	msg, _, _, err := hs.WriteMessage(nil, payload)
	if err != nil {
		return nil, err
	}
	if err := writeHandshakeMsg(underlying, msg); err != nil {
		return nil, err
	}

	// <- s, se (+ initiator payload)
	buf2, err := readHandshakeMsg(underlying)
	if err != nil {
		return nil, err
	}
	remotePayload, cs1, cs2, err := hs.ReadMessage(nil, buf2)
	if err != nil {
		return nil, err
	}

	// For the responder, cipher state order is swapped relative to initiator.
	return &HandshakeResult{
		Conn: &SecureConn{
			underlying: underlying,
			readCS:     cs1,
			writeCS:    cs2,
		},
		RemotePayload: remotePayload,
	}, nil
}
