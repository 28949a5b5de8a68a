// Package ratchet implements kittycore's per-message encryption
// primitive.
//
// Despite the name this is not a chained double ratchet: no chain key
// is threaded between messages. Every Encrypt call generates a fresh
// ephemeral X25519 key pair, derives a one-off symmetric key as
// SHA-256 of the ephemeral-static Diffie–Hellman shared secret, and
// seals the plaintext with ChaCha20-Poly1305 under a fresh random
// nonce. The wire form is base64(nonce ‖ AEAD output) plus the
// ephemeral public key carried alongside in the envelope.
//
// Decrypt recomputes the same key from the recipient's static secret
// and the sender's ephemeral public key. Any failure (tampering, wrong
// key, truncated or malformed input) yields domain.ErrDecrypt, and
// partial plaintext is never returned.
package ratchet
