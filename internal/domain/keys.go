package domain

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// IsZero reports whether the key is unset.
func (p X25519Public) IsZero() bool { return p == (X25519Public{}) }

// MarshalText encodes the key as standard base64 so JSON carries keys
// as strings rather than byte arrays.
func (p X25519Public) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(p[:])), nil
}

// UnmarshalText decodes a standard-base64 key string.
func (p *X25519Public) UnmarshalText(text []byte) error {
	b, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return errors.Wrap(err, "decode public key")
	}
	if len(b) != len(p) {
		return errors.Errorf("public key must be %d bytes, got %d", len(p), len(b))
	}
	copy(p[:], b)
	return nil
}

// X25519Private is a Curve25519 private key. It never leaves the owning
// device.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// MarshalText encodes the key as standard base64.
func (k X25519Private) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(k[:])), nil
}

// UnmarshalText decodes a standard-base64 key string.
func (k *X25519Private) UnmarshalText(text []byte) error {
	b, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return errors.Wrap(err, "decode private key")
	}
	if len(b) != len(k) {
		return errors.Errorf("private key must be %d bytes, got %d", len(k), len(b))
	}
	copy(k[:], b)
	return nil
}

// KeyPair bundles a static identity key pair.
type KeyPair struct {
	Public  X25519Public  `json:"public"`
	Private X25519Private `json:"private"`
}
