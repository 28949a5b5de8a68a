package ratchet

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"kittycore/internal/crypto"
	"kittycore/internal/domain"
)

const nonceSize = chacha20poly1305.NonceSize

// Encrypt seals plaintext for the holder of recipient's static secret
// key. It returns the transport-encoded ciphertext and the one-time
// ephemeral public key the recipient needs to derive the same message
// key.
func Encrypt(recipient domain.X25519Public, plaintext []byte) (ciphertext string, eph domain.X25519Public, err error) {
	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return "", eph, err
	}
	defer crypto.Wipe(ephPriv[:])

	shared, err := crypto.DH(ephPriv, recipient)
	if err != nil {
		return "", eph, err
	}
	key := crypto.DeriveMessageKey(shared)
	crypto.Wipe(shared[:])
	defer crypto.Wipe(key[:])

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return "", eph, err
	}
	// Nonce reuse under one key would break confidentiality, but every
	// message derives its own key, so a fresh random nonce per call
	// confines even a collision to a single message.
	buf := make([]byte, nonceSize, nonceSize+len(plaintext)+aead.Overhead())
	if _, err = rand.Read(buf); err != nil {
		return "", eph, err
	}
	sealed := aead.Seal(buf, buf[:nonceSize], plaintext, nil)
	return crypto.B64(sealed), ephPub, nil
}

// Decrypt opens a ciphertext produced by Encrypt. own is the
// recipient's static secret key, senderEph the ephemeral public key
// from the envelope.
func Decrypt(own domain.X25519Private, senderEph domain.X25519Public, ciphertext string) ([]byte, error) {
	raw, err := crypto.B64Decode(ciphertext)
	if err != nil {
		return nil, domain.ErrDecrypt
	}
	if len(raw) < nonceSize+chacha20poly1305.Overhead {
		return nil, domain.ErrDecrypt
	}

	shared, err := crypto.DH(own, senderEph)
	if err != nil {
		return nil, domain.ErrDecrypt
	}
	key := crypto.DeriveMessageKey(shared)
	crypto.Wipe(shared[:])
	defer crypto.Wipe(key[:])

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, domain.ErrDecrypt
	}
	return plain, nil
}
