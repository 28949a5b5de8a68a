package crypto

import (
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/curve25519"

	"kittycore/internal/domain"
)

// GenerateX25519 returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

// DH computes X25519 Diffie–Hellman.
func DH(priv domain.X25519Private, pub domain.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, err
	}
	copy(out[:], secret)
	return out, nil
}

// DeriveMessageKey turns a raw DH shared secret into the symmetric key
// for one message. The derivation is a one-way fixed-output digest, so
// the same key falls out on both sides by DH commutativity.
func DeriveMessageKey(shared [32]byte) [32]byte {
	return sha256.Sum256(shared[:])
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
