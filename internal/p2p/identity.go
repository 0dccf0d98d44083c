package p2p

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flynn/noise"
)

// Identity is the node's long-lived keypair set: an ed25519 key for the
// user-facing identity and a curve25519 static key for the Noise transport.
// The network peer ID is the hex of the Noise public key.
type Identity struct {
	SignPriv ed25519.PrivateKey
	SignPub  ed25519.PublicKey

	NoisePriv []byte
	NoisePub  []byte

	ID     string // hex(NoisePub), transport-level peer id
	UserID string // hex(SignPub), user-level id
}

// UserIDFromPub derives the canonical user ID from a public key.
func UserIDFromPub(pub ed25519.PublicKey) string {
	return hex.EncodeToString(pub)
}

func NewIdentity() (*Identity, error) {
	signPub, signPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	dh, err := noise.DH25519.GenerateKeypair(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Identity{
		SignPriv:  signPriv,
		SignPub:   signPub,
		NoisePriv: dh.Private,
		NoisePub:  dh.Public,
		ID:        hex.EncodeToString(dh.Public),
		UserID:    hex.EncodeToString(signPub),
	}, nil
}

type identityFile struct {
	SignPriv  []byte `json:"sign_priv"`
	NoisePriv []byte `json:"noise_priv"`
	NoisePub  []byte `json:"noise_pub"`
}

// LoadOrCreateIdentity keeps the same keys across runs so a node's peer ID
// and user ID are stable.
func LoadOrCreateIdentity(path string) (*Identity, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		var f identityFile
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse identity file %s: %w", path, err)
		}
		if len(f.SignPriv) != ed25519.PrivateKeySize || len(f.NoisePriv) == 0 || len(f.NoisePub) == 0 {
			return nil, fmt.Errorf("identity file %s is malformed", path)
		}
		signPriv := ed25519.PrivateKey(f.SignPriv)
		signPub := signPriv.Public().(ed25519.PublicKey)
		return &Identity{
			SignPriv:  signPriv,
			SignPub:   signPub,
			NoisePriv: f.NoisePriv,
			NoisePub:  f.NoisePub,
			ID:        hex.EncodeToString(f.NoisePub),
			UserID:    hex.EncodeToString(signPub),
		}, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	id, err := NewIdentity()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	raw, err = json.Marshal(identityFile{
		SignPriv:  id.SignPriv,
		NoisePriv: id.NoisePriv,
		NoisePub:  id.NoisePub,
	})
	if err != nil {
		return nil, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	return id, nil
}
