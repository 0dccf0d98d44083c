// Package roomseal encrypts private-room gossip. Gossip floods the whole
// network, so room messages are sealed with a key only the two negotiated
// participants hold: the key is derived from the room id, which travels over
// the Noise-encrypted invite channel and nowhere else.
package roomseal

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// RoomKey is the 32-byte symmetric key for a private room.
type RoomKey [32]byte

// KeyFromTopic derives the room key from the room's topic string.
func KeyFromTopic(topic string) RoomKey {
	return RoomKey(sha256.Sum256([]byte("swapbytes-room:" + topic)))
}

// Seal encrypts plaintext using XChaCha20-Poly1305 with the given key.
func Seal(key RoomKey, plaintext []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// Open decrypts ciphertext using XChaCha20-Poly1305 with the given key.
func Open(key RoomKey, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, nil)
}
